package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"

	"pumpwatch-sol/internal/config"
	"pumpwatch-sol/internal/logic/grpc"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/svc"
	"pumpwatch-sol/internal/tools"
	"pumpwatch-sol/pkg/logger"
)

func main() {
	root := &cobra.Command{
		Use:          "pumpwatch",
		Short:        "pump.fun token creation monitor",
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Subscribe to the gRPC feed and emit token creation events",
		RunE:  runMonitor,
	}
	runCmd.Flags().StringP("file", "f", "etc/grpc.yaml", "the config file")
	runCmd.Flags().String("env", ".env", "optional dotenv file loaded before the config")
	root.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode one instruction data payload offline",
		RunE:  runDecode,
	}
	decodeCmd.Flags().String("data", "", "instruction data, hex or base64")
	decodeCmd.Flags().String("protocol", "", "protocol yaml file, empty for the built-in table")
	_ = decodeCmd.MarkFlagRequired("data")
	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	configFile, _ := cmd.Flags().GetString("file")
	envFile, _ := cmd.Flags().GetString("env")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var c config.GrpcConfig
	conf.MustLoad(configFile, &c, conf.UseEnv())

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	logx.DisableStat()

	serviceContext, err := svc.NewServiceContext(c)
	if err != nil {
		return err
	}

	grpcService, err := grpc.NewGrpcStreamManager(serviceContext)
	if err != nil {
		serviceContext.Dispatcher.Stop()
		return err
	}

	sg := zerosvc.NewServiceGroup()
	sg.Add(serviceContext.Dispatcher)
	if serviceContext.Enricher != nil {
		sg.Add(serviceContext.Enricher)
	}
	sg.Add(grpcService)

	logger.Infof("Starting grpc stream service, endpoint=%s", c.Grpc.Endpoint)

	// 各服务的 Start 均阻塞运行
	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infof("Shutting down services...")
	// 先停止读流，再排空投递队列
	grpcService.Stop()
	sg.Stop()
	return nil
}

func runDecode(cmd *cobra.Command, _ []string) error {
	data, _ := cmd.Flags().GetString("data")
	protocolFile, _ := cmd.Flags().GetString("protocol")

	table, err := protocol.Load(protocolFile)
	if err != nil {
		return err
	}
	payload, err := tools.ParsePayload(data)
	if err != nil {
		return err
	}
	res, err := tools.DecodePayload(table, payload)
	if err != nil {
		return err
	}

	out, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
