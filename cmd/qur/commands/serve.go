package commands

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quantusur/pkg/app"
	"quantusur/pkg/server"
	"quantusur/pkg/service"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the qur gRPC server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Init Core Application
		application, err := app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer application.Close()

		// 2. Setup Network
		addr := viper.GetString("server.addr")
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}

		// 3. Setup gRPC Server
		grpcServer, healthSrv := server.New(service.NewCodecService(application),
			grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
				MinTime:             5 * time.Second,
				PermitWithoutStream: true,
			}),
		)

		// 4. Start Server (Async)
		errCh := make(chan error, 1)
		go func() {
			slog.Info("gRPC server listening", "addr", lis.Addr().String(), "storage", viper.GetString("storage.type"))
			errCh <- grpcServer.Serve(lis)
		}()

		// 5. Graceful Shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-errCh:
			return fmt.Errorf("failed to serve: %w", err)
		case <-quit:
		}

		slog.Info("shutting down server")
		healthSrv.Shutdown()
		grpcServer.GracefulStop()
		slog.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
	if err := viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr")); err != nil {
		fmt.Println("Failed to bind flag:", err)
		os.Exit(1)
	}
	rootCmd.AddCommand(serveCmd)
}
