package exporter

import (
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"

	"quantusur/pkg/core"
	"quantusur/pkg/session"
	"quantusur/pkg/ur"
)

// PrintPart 解析一个 UR 字符串并打印头部信息
func PrintPart(part string, w io.Writer) error {
	parsed, err := ur.Parse(part)
	if err != nil {
		return err
	}
	if parsed.IsSinglePart() {
		return printSingle(parsed, w)
	}
	return printMulti(parsed, w)
}

func printSingle(p *ur.Parsed, w io.Writer) error {
	fmt.Fprintf(w, "Type:     %s\n", p.Type)
	fmt.Fprintf(w, "Kind:     single-part\n")
	fmt.Fprintf(w, "Message:  %d bytes (checksum %s)\n", len(p.Payload), core.Checksum(p.Payload))

	payload, err := core.Unwrap(p.Payload)
	if err != nil {
		fmt.Fprintf(w, "Payload:  <%v>\n", err)
		return nil
	}
	fmt.Fprintf(w, "Payload:  %d bytes\n", len(payload))
	fmt.Fprintf(w, "\n%s\n", preview(payload))
	return nil
}

func printMulti(p *ur.Parsed, w io.Writer) error {
	part := p.Part
	kind := "mixed"
	if part.IsPure() {
		kind = "pure"
	}
	fmt.Fprintf(w, "Type:      %s\n", p.Type)
	fmt.Fprintf(w, "Kind:      multi-part (%s)\n", kind)
	fmt.Fprintf(w, "Sequence:  %d of %d\n", part.SeqNum, part.SeqLen)
	fmt.Fprintf(w, "Message:   %d bytes (checksum %s)\n", part.MessageLen, part.Checksum)
	fmt.Fprintf(w, "Fragment:  %d bytes\n", len(part.Data))
	fmt.Fprintf(w, "Indexes:   %v\n", part.FragmentIndexes())
	fmt.Fprintf(w, "\n%s\n", preview(part.Data))
	return nil
}

// PrintParts 以表格形式列出多个 Part，模拟 ls 的输出
// 解析失败的行显示错误而不是中断
func PrintParts(parts []string, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "#\tTYPE\tSEQ\tMESSAGE\tCHECKSUM\tINDEXES\n")
	for i, s := range parts {
		parsed, err := ur.Parse(s)
		switch {
		case err != nil:
			fmt.Fprintf(tw, "%d\t-\t-\t-\t-\t%v\n", i+1, err)
		case parsed.IsSinglePart():
			fmt.Fprintf(tw, "%d\t%s\t1/1\t%s\t%s\t[0]\n",
				i+1, parsed.Type, fmtSize(int64(len(parsed.Payload))), core.Checksum(parsed.Payload))
		default:
			p := parsed.Part
			fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%s\t%s\t%v\n",
				i+1, parsed.Type, p.SeqNum, p.SeqLen, fmtSize(int64(p.MessageLen)), p.Checksum, p.FragmentIndexes())
		}
	}
	tw.Flush()
}

// PrintStatus 打印扫描会话的进度
func PrintStatus(st *session.Status, w io.Writer) {
	for _, r := range st.Rejected {
		fmt.Fprintf(w, "rejected part %d: %v\n", r.Index+1, r.Err)
	}
	if st.Complete {
		fmt.Fprintln(w, hex.EncodeToString(st.Payload))
		return
	}
	expected := "?"
	if st.Expected > 0 {
		expected = fmt.Sprint(st.Expected)
	}
	fmt.Fprintf(w, "session %s: %d parts stored (+%d), %s fragments, ~%.0f%% complete\n",
		st.Session, st.Stored, st.Added, expected, st.Progress*100)
	if len(st.Known) > 0 {
		fmt.Fprintf(w, "known fragments: %v\n", st.Known)
	}
}

// preview 返回前 32 字节的 hex dump
func preview(data []byte) string {
	const limit = 32
	if len(data) <= limit {
		return hex.Dump(data)
	}
	return hex.Dump(data[:limit]) + fmt.Sprintf("... (%d more bytes)", len(data)-limit)
}

func fmtSize(s int64) string {
	if s < 1024 {
		return fmt.Sprintf("%dB", s)
	} else if s < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(s)/1024)
	}
	return fmt.Sprintf("%.2fMB", float64(s)/1024/1024)
}
