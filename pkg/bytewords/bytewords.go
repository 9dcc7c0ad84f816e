// Package bytewords 实现 BCR-2020-012 Bytewords 文本编码
//
// 每个字节映射为 256 个四字母单词之一，末尾附加大端序 CRC-32。
// UR 使用 Minimal 风格 (每个单词只取首尾两个字母)。
package bytewords

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

var (
	ErrInvalidWord     = errors.New("bytewords: invalid word")
	ErrInvalidChecksum = errors.New("bytewords: invalid checksum")
	ErrTooShort        = errors.New("bytewords: data too short")
)

// Style 决定单词的书写形式
type Style int

const (
	Standard Style = iota // "able acid also"
	URI                   // "able-acid-also"
	Minimal               // "aeadao"
)

const checksumLen = 4

const wordList = "" +
	"ableacidalsoapexaquaarchatomauntawayaxisbackbaldbarnbeltbetabias" +
	"bluebodybragbrewbulbbuzzcalmcashcatschefcityclawcodecolacookcost" +
	"cruxcurlcuspcyandarkdatadaysdelidicedietdoordowndrawdropdrumdull" +
	"dutyeacheasyechoedgeepicevenexamexiteyesfactfairfernfigsfilmfish" +
	"fizzflapflewfluxfoxyfreefrogfuelfundgalagamegeargemsgiftgirlglow" +
	"goodgraygrimgurugushgyrohalfhanghardhawkheathelphighhillholyhope" +
	"hornhutsicedideaidleinchinkyintoirisironitemjadejazzjoinjoltjowl" +
	"judojugsjumpjunkjurykeepkenokeptkeyskickkilnkingkitekiwiknoblamb" +
	"lavalazyleaflegsliarlimplionlistlogoloudloveluaulucklungmainmany" +
	"mathmazememomenumeowmildmintmissmonknailnavyneednewsnextnoonnote" +
	"numbobeyoboeomitonyxopenovalowlspaidpartpeckplaypluspoempoolpose" +
	"puffpumapurrquadquizraceramprealredorichroadrockroofrubyruinruns" +
	"rustsafesagascarsetssilkskewslotsoapsolosongstubsurfswantacotask" +
	"taxitenttiedtimetinytoiltombtoystriptunatwinuglyundouniturgeuser" +
	"vastveryvetovialvibeviewvisavoidvowswallwandwarmwaspwavewaxywebs" +
	"whatwhenwhizwolfworkyankyawnyellyogayurtzapszerozestzinczonezoom"

var (
	words   [256]string
	byWord  map[string]byte
	minimal [26 * 26]int16 // 首尾字母 -> 字节，-1 表示无效
)

func init() {
	if len(wordList) != 256*4 {
		panic("bytewords: corrupted word list")
	}

	byWord = make(map[string]byte, 256)
	for i := range minimal {
		minimal[i] = -1
	}
	for i := range words {
		w := wordList[i*4 : i*4+4]
		words[i] = w
		byWord[w] = byte(i)
		minimal[minimalKey(w[0], w[3])] = int16(i)
	}
}

func minimalKey(first, last byte) int {
	return int(first-'a')*26 + int(last-'a')
}

// Word 返回字节对应的完整单词
func Word(b byte) string { return words[b] }

// Encode 编码数据并附加 CRC-32
func Encode(style Style, data []byte) string {
	buf := appendChecksum(data)

	switch style {
	case Minimal:
		var sb strings.Builder
		sb.Grow(len(buf) * 2)
		for _, b := range buf {
			w := words[b]
			sb.WriteByte(w[0])
			sb.WriteByte(w[3])
		}
		return sb.String()
	default:
		sep := " "
		if style == URI {
			sep = "-"
		}
		ws := make([]string, len(buf))
		for i, b := range buf {
			ws[i] = words[b]
		}
		return strings.Join(ws, sep)
	}
}

// Decode 解码并校验 CRC-32，返回不含校验和的数据
// 输入大小写不敏感
func Decode(style Style, text string) ([]byte, error) {
	text = strings.ToLower(text)

	var (
		buf []byte
		err error
	)
	switch style {
	case Minimal:
		buf, err = decodeMinimal(text)
	case URI:
		buf, err = decodeWords(strings.Split(text, "-"))
	default:
		buf, err = decodeWords(strings.Split(text, " "))
	}
	if err != nil {
		return nil, err
	}
	return stripChecksum(buf)
}

func decodeMinimal(text string) ([]byte, error) {
	if len(text)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidWord, len(text))
	}
	buf := make([]byte, len(text)/2)
	for i := range buf {
		first, last := text[i*2], text[i*2+1]
		if first < 'a' || first > 'z' || last < 'a' || last > 'z' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWord, text[i*2:i*2+2])
		}
		v := minimal[minimalKey(first, last)]
		if v < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWord, text[i*2:i*2+2])
		}
		buf[i] = byte(v)
	}
	return buf, nil
}

func decodeWords(ws []string) ([]byte, error) {
	buf := make([]byte, len(ws))
	for i, w := range ws {
		b, ok := byWord[w]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWord, w)
		}
		buf[i] = b
	}
	return buf, nil
}

func appendChecksum(data []byte) []byte {
	buf := make([]byte, len(data), len(data)+checksumLen)
	copy(buf, data)
	return binary.BigEndian.AppendUint32(buf, crc32.ChecksumIEEE(data))
}

func stripChecksum(buf []byte) ([]byte, error) {
	if len(buf) < checksumLen+1 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(buf))
	}
	body, sum := buf[:len(buf)-checksumLen], buf[len(buf)-checksumLen:]
	if crc32.ChecksumIEEE(body) != binary.BigEndian.Uint32(sum) {
		return nil, ErrInvalidChecksum
	}
	return body, nil
}
