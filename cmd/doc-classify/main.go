package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"

	"github.com/matej/doc-triage/internal/adapters/filter"
	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/di"
	"github.com/matej/doc-triage/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run classifies one message read from the input file or stdin
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	emailFilter ports.EmailFilter,
	analyzer core.DocumentAnalyzer,
	store core.EvidenceStore,
) error {
	defer logger.Sync()

	// Read email from file or stdin
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file %s: %w", flags.InputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		return fmt.Errorf("failed to parse email: %w", err)
	}

	email, err := filter.EmailFromMessage(msg, "", nil)
	if err != nil {
		logger.Warn("Failed to fully decode message body", zap.Error(err))
	}

	if _, err := emailFilter.ProcessEmail(context.Background(), email); err != nil {
		return err
	}

	// Close any resources that need closing
	if closer, ok := analyzer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close analyzer", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close evidence store", zap.Error(err))
	}

	return nil
}
