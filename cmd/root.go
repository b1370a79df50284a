package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wsdrop/internal/app"
	"wsdrop/internal/config"
	"wsdrop/internal/observability"
	"wsdrop/internal/processor"
	"wsdrop/internal/queue"
	"wsdrop/internal/ui"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg         *config.Config
	cfgFile     string
	noClipboard bool

	envKeyReplacer = strings.NewReplacer(".", "_")
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wsdrop",
	Short: "wsdrop - drop files onto a link-sharing endpoint",
	Long: `wsdrop uploads files to a drop endpoint over a single WebSocket connection.

Each file is announced with a control message and then streamed as 64 KB
binary frames. When the endpoint has stored the file it answers with a link,
which is printed and copied to the clipboard.

Usage:
  Upload files:          wsdrop send report.pdf photo.jpg
  Watch a drop folder:   wsdrop watch --dir ~/Drop`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initConfig()

		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		return initLogging(cfg.Log.Level)
	},
}

func init() {
	config.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wsdrop.yaml)")
	rootCmd.PersistentFlags().String("server", "", "endpoint websocket url (default ws://localhost:80/connect)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noClipboard, "no-clipboard", false, "do not copy links to the clipboard")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve prometheus metrics on this address")

	viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))

	// Set up viper environment variable support
	viper.SetEnvPrefix("WSDROP")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Warn().Err(err).Msg("could not find home directory")
			return
		}

		// Search config in home directory with name ".wsdrop" (without extension)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".wsdrop")
	}

	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}

	if noClipboard {
		viper.Set("link.clipboard", false)
	}
}

func initLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// createContext creates a context that cancels on interrupt signals
func createContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("received interrupt signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// createServices creates and wires up all the application services
func createServices(ctx context.Context) (*queue.Queue, *processor.FileService, *app.SenderApp) {
	metrics := observability.NewMetrics()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	var clip ui.Clipboard
	if cfg.Link.Clipboard {
		clip = ui.SystemClipboard{}
	}

	q := queue.New()
	fileService := processor.NewFileService()
	surface := ui.NewSurface(os.Stdout, cfg.DownloadBase(), clip)
	senderApp := app.NewSenderApp(cfg, q, fileService, surface, metrics)

	return q, fileService, senderApp
}
