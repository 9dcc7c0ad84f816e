package commands

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"quantusur/pkg/client"
	"quantusur/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "qur",
	Short: "qur: Uniform Resources codec for Quantus signing requests",
	Long: `qur turns signing request payloads into animated-QR friendly UR parts
(ur:quantus-sign-request/...) and reassembles them again.`,
	SilenceUsage: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(viper.GetBool("verbose"))
		return nil
	},
}

// Execute 是入口
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// 在初始化时，加载配置
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.qur/config.yaml)")
	flags.String("storage-path", "", "Directory to keep scan sessions in")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("server", "", "Address of a qur server; when set commands run remotely")

	// 用户既可以在 yaml 里写，也可以用 flag 覆盖
	for key, flag := range map[string]string{
		"storage.path": "storage-path",
		"verbose":      "verbose",
		"remote.addr":  "server",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Println("Failed to bind flag:", err)
			os.Exit(1)
		}
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Println("Config error:", err)
		os.Exit(1)
	}
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// remoteClient 没有配置 --server 时返回 nil
func remoteClient() (*client.Client, error) {
	addr := viper.GetString("remote.addr")
	if addr == "" {
		return nil, nil
	}
	return client.New(addr)
}

// readParts 优先使用参数，否则从 stdin 逐行读取 (忽略空行)
func readParts(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var parts []string
	sc := bufio.NewScanner(cmd.InOrStdin())
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			parts = append(parts, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return parts, nil
}

// readPayload 读取 hex 载荷：参数或整个 stdin
func readPayload(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
