// Command u2fkeyd runs the U2FHID authenticator event loop over a virtual
// HID device. Flag parsing and process wiring live here so every other
// package stays a pure library the core can be embedded or tested without
// a CLI, the same split krd.go draws between its daemon main and its
// control_server logic.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/apdu"
	"github.com/kryptco/u2fkeyd/attestation"
	"github.com/kryptco/u2fkeyd/counter"
	"github.com/kryptco/u2fkeyd/device"
	"github.com/kryptco/u2fkeyd/u2fcrypto"
	"github.com/kryptco/u2fkeyd/u2fhid"
)

var log *logging.Logger

func defaultStateDir() string {
	if dir := os.Getenv("U2FKEYD_STATE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".u2fkeyd"
	}
	return filepath.Join(home, ".u2fkeyd")
}

func main() {
	log = u2f.SetupLogging("u2fkeyd", logging.NOTICE, true)

	app := cli.NewApp()
	app.Name = "u2fkeyd"
	app.Usage = "software FIDO U2F authenticator speaking the U2FHID transport"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "state-dir",
			Usage: "directory holding the attestation identity and auth counter",
			Value: defaultStateDir(),
		},
		cli.StringFlag{
			Name:  "counter-backend",
			Usage: "file or s3",
			Value: "file",
		},
		cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "S3 bucket for --counter-backend=s3",
		},
		cli.StringFlag{
			Name:  "s3-key",
			Usage: "S3 object key for --counter-backend=s3",
		},
		cli.StringFlag{
			Name:  "s3-region",
			Usage: "AWS region for --counter-backend=s3",
		},
	}
	app.Commands = []cli.Command{
		cli.Command{
			Name:   "run",
			Usage:  "bind the virtual HID device and serve U2FHID requests",
			Action: runCommand,
		},
		cli.Command{
			Name:   "version",
			Usage:  "print the device version this authenticator reports",
			Action: versionCommand,
		},
	}
	app.Action = runCommand

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgHiRed).Sprint(err))
		os.Exit(1)
	}
}

func versionCommand(c *cli.Context) error {
	fmt.Println(color.New(color.FgHiCyan).Sprint(u2fhid.DeviceVersion.String()))
	return nil
}

func runCommand(c *cli.Context) error {
	stateDir := c.String("state-dir")
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	att, err := attestation.LoadOrGenerate(
		filepath.Join(stateDir, "attestation.key"),
		filepath.Join(stateDir, "attestation.crt"),
		filepath.Join(stateDir, "master.secret"),
	)
	if err != nil {
		return fmt.Errorf("provision attestation identity: %w", err)
	}

	crypto, err := u2fcrypto.NewDefault(att.MasterSecret())
	if err != nil {
		return fmt.Errorf("initialize crypto facade: %w", err)
	}

	counterProvider, err := buildCounterProvider(c, stateDir)
	if err != nil {
		return fmt.Errorf("initialize counter provider: %w", err)
	}

	dev, err := openDevice()
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer dev.Close()

	handler := &apdu.Handler{
		Crypto:      crypto,
		Counter:     counterProvider,
		Attestation: att,
		Presence:    apdu.StubPresence{},
		Log:         log,
	}

	dispatcher, err := u2fhid.New(dev, handler, log)
	if err != nil {
		return fmt.Errorf("initialize dispatcher: %w", err)
	}

	stop := make(chan struct{})
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	runErr := make(chan error, 1)
	go func() {
		var err error
		u2f.RecoverToLog(func() {
			err = dispatcher.Run(stop)
		}, log)
		runErr <- err
	}()

	log.Notice(color.New(color.FgHiGreen).Sprint("u2fkeyd ready"))

	select {
	case sig := <-stopSignal:
		log.Notice("stopping with signal", sig)
		close(stop)
		<-runErr
	case err := <-runErr:
		if err != nil {
			log.Critical("fatal dispatcher error:", err)
			return err
		}
	}
	return nil
}

func buildCounterProvider(c *cli.Context, stateDir string) (counter.Provider, error) {
	switch c.String("counter-backend") {
	case "s3":
		return counter.NewS3Provider(context.Background(), counter.S3Config{
			Region: c.String("s3-region"),
			Bucket: c.String("s3-bucket"),
			Key:    c.String("s3-key"),
		})
	default:
		return counter.NewFileProvider(counter.DefaultPath(stateDir))
	}
}
