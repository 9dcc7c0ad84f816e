package commands

import (
	"fmt"

	qurpc "quantusur/pkg/api/qurpc/v1"
	"quantusur/pkg/app"
	"quantusur/pkg/signreq"

	"github.com/spf13/cobra"
)

var (
	encodeType      string
	encodeMaxLen    int
	encodeExtra     int
	encodeLowercase bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode [hex]",
	Short: "Encode a hex payload into UR parts",
	Long: `Encode a signing request payload (hex, optional 0x prefix) into one or more
UR strings, printed one per line. Without an argument the payload is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readPayload(cmd, args)
		if err != nil {
			return err
		}
		payload, err := signreq.ParseHex(input)
		if err != nil {
			return err
		}

		var parts []string
		cli, err := remoteClient()
		if err != nil {
			return err
		}
		if cli != nil {
			defer cli.Close()
			resp, err := cli.Codec.Encode(cmd.Context(), &qurpc.EncodeRequest{
				Payload:           payload,
				Type:              encodeType,
				MaxFragmentLength: encodeMaxLen,
				ExtraParts:        encodeExtra,
				Lowercase:         encodeLowercase,
			})
			if err != nil {
				return fmt.Errorf("remote encode failed: %w", err)
			}
			parts = resp.Parts
		} else {
			codec, err := signreq.New(encodeOptions(cmd))
			if err != nil {
				return err
			}
			if parts, err = codec.Encode(cmd.Context(), payload); err != nil {
				return fmt.Errorf("encode failed: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		for _, p := range parts {
			fmt.Fprintln(out, p)
		}
		return nil
	},
}

// encodeOptions 在配置之上叠加命令行显式给出的参数
func encodeOptions(cmd *cobra.Command) signreq.Options {
	opts := app.CodecOptions()
	flags := cmd.Flags()
	if flags.Changed("type") {
		opts.Type = encodeType
	}
	if flags.Changed("max-fragment-length") {
		opts.MaxFragmentLength = encodeMaxLen
	}
	if flags.Changed("extra") {
		opts.ExtraParts = encodeExtra
	}
	if encodeLowercase {
		opts.Uppercase = false
	}
	return opts
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeType, "type", "t", "", "UR type (default from config)")
	encodeCmd.Flags().IntVarP(&encodeMaxLen, "max-fragment-length", "m", 0, "Maximum fragment length in bytes")
	encodeCmd.Flags().IntVar(&encodeExtra, "extra", 0, "Extra mixed parts to emit after the pure ones")
	encodeCmd.Flags().BoolVar(&encodeLowercase, "lowercase", false, "Emit lowercase UR strings")
	rootCmd.AddCommand(encodeCmd)
}
