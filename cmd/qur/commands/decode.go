package commands

import (
	"encoding/hex"
	"fmt"

	qurpc "quantusur/pkg/api/qurpc/v1"
	"quantusur/pkg/app"

	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [part...]",
	Short: "Reassemble UR parts into the hex payload",
	Long:  `Decode a set of UR parts, in any order and with duplicates, back into the payload. Parts are read from stdin, one per line, when no argument is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		parts, err := readParts(cmd, args)
		if err != nil {
			return err
		}

		cli, err := remoteClient()
		if err != nil {
			return err
		}
		var payload []byte
		if cli != nil {
			defer cli.Close()
			resp, err := cli.Codec.Decode(cmd.Context(), &qurpc.DecodeRequest{Parts: parts})
			if err != nil {
				return fmt.Errorf("remote decode failed: %w", err)
			}
			payload = resp.Payload
		} else {
			codec, err := app.NewCodec()
			if err != nil {
				return err
			}
			if payload, err = codec.Decode(parts); err != nil {
				return fmt.Errorf("decode failed: %w", err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(payload))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
