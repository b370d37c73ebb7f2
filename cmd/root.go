package cmd

import (
	"fmt"
	"os"
	"time"

	"frame-archiver/infrastructure/config"
	"frame-archiver/infrastructure/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	cfgErr   error
	session  *logging.Session
)

var rootCmd = &cobra.Command{
	Use:   "frame-archiver",
	Short: "Extract still frames from videos into zip archives",
	Long: `frame-archiver extracts still frames from a video with ffmpeg and packages
them into a single zip archive:

  - Keep every Nth frame as png, jpg or bmp
  - Live progress while ffmpeg runs
  - Ctrl+C stops early and still saves the frames extracted so far
  - Optionally upload the archive to Google Drive

Example:
  frame-archiver extract --input clip.mp4 --every 10 --format jpg`,
	SilenceUsage: true,
}

// Execute runs the root command. Panics are written to the session log before the process dies.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			if session != nil {
				logging.LogPanic(session.Logger, r)
				fmt.Fprintf(os.Stderr, "frame-archiver crashed; details in %s\n", session.Path)
			}
			panic(r)
		}
	}()
	defer closeSession()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		closeSession()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "session log level (debug, info, warn, error)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	// A missing config file is fine; every setting has a default
	cfg, cfgErr = config.LoadOrDefault(cfgFile)
}

// GetConfig returns the loaded configuration, or an error if the config file is invalid
func GetConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

// sessionLogger opens the session log on first use. Failing to open it is not fatal.
func sessionLogger(c *config.Config) *zap.Logger {
	if session != nil {
		return session.Logger
	}
	s, err := logging.NewSession(c.Paths.LogDirectory, logLevel, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: session log disabled: %v\n", err)
		return zap.NewNop()
	}
	session = s
	session.Logger.Info("session started", zap.Strings("args", os.Args), zap.String("config", cfgFile))
	return session.Logger
}

func closeSession() {
	if session != nil {
		session.Close()
		session = nil
	}
}
