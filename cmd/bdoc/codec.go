package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/Neumenon/bdoc/stream"
	"github.com/spf13/cobra"
)

var (
	encodeOutput string
	decodeIndent bool
	hashAlg      string
)

var encodeCmd = &cobra.Command{
	Use:   "encode [file.json]",
	Short: "Convert a JSON object to the binary encoding",
	Long: `Convert a JSON object to the binary encoding. Field order is preserved.
Kinds JSON cannot express are written as single-field marker objects:
{"$int64": "5"}, {"$double": "3"}, {"$decimal": "107.78"},
{"$binary": "<base64>"}, {"$date": <ms since epoch>}.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, name, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		doc, err := bdoc.FromJSON(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		encoded, err := bdoc.EncodeWithOptions(doc, cfg.CodecOptions())
		if err != nil {
			return err
		}
		slog.Debug("encoded document", "input", name, "fields", doc.Len(), "bytes", len(encoded))

		if encodeOutput == "" || encodeOutput == "-" {
			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		}
		return os.WriteFile(encodeOutput, encoded, 0o644)
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode [file.bdoc]",
	Short: "Convert the binary encoding to JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := decodeInput(cmd, args)
		if err != nil {
			return err
		}
		var out []byte
		if decodeIndent {
			out, err = bdoc.ToJSONIndent(doc, "", "  ")
		} else {
			out, err = bdoc.ToJSON(doc)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
		return err
	},
}

var walkCmd = &cobra.Command{
	Use:   "walk [file.bdoc]",
	Short: "Print the document tree, one field per line",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := decodeInput(cmd, args)
		if err != nil {
			return err
		}
		return bdoc.Fprint(cmd.OutOrStdout(), doc)
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash [file]",
	Short: "Print the digest of raw bytes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alg, err := digestAlgorithm(hashAlg)
		if err != nil {
			return err
		}
		data, name, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", stream.Sum(alg, data), name)
		return err
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd, decodeCmd, walkCmd, hashCmd)
	encodeCmd.Flags().StringVarP(&encodeOutput, "output", "o", "", "Write the encoding to a file instead of stdout")
	decodeCmd.Flags().BoolVar(&decodeIndent, "indent", true, "Indent the JSON output")
	hashCmd.Flags().StringVar(&hashAlg, "alg", "", "Digest algorithm: sha256 or blake3 (default from config)")
}

func decodeInput(cmd *cobra.Command, args []string) (*bdoc.Document, error) {
	data, name, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	doc, err := bdoc.DecodeWithOptions(data, cfg.CodecOptions())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	slog.Debug("decoded document", "input", name, "bytes", len(data), "fields", doc.Len())
	return doc, nil
}

// digestAlgorithm resolves a --alg flag, falling back to the config.
func digestAlgorithm(flag string) (stream.HashAlgorithm, error) {
	if flag != "" {
		return stream.ParseHashAlgorithm(flag)
	}
	return cfg.HashAlgorithm()
}
