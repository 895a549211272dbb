package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/newthinker/folio/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	uploadKey         string
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a file to the configured object store",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadKey, "key", "k", "", "object key (default: file name)")
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "content type (default: detected)")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	key := uploadKey
	if key == "" {
		key = filepath.Base(path)
	}
	contentType := uploadContentType
	if contentType == "" {
		contentType = detectContentType(path, data)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}

	url, err := store.Put(cmd.Context(), key, data, contentType)
	if err != nil {
		return err
	}
	log.Debug("uploaded object",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)),
	)

	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}

// detectContentType prefers the extension and falls back to sniffing.
func detectContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
