package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/Neumenon/bdoc/stream"
	"github.com/spf13/cobra"
)

var framesCmd = &cobra.Command{
	Use:   "frames [file]",
	Short: "Decode GS1 frames and print them",
	Long: `Decode a GS1 frame stream and print each frame header. Payloads of
doc, save and state frames are printed as document trees; err payloads are
printed as error events.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		reader := stream.NewReader(bytes.NewReader(data), stream.WithMaxPayload(cfg.MaxPayload))
		out := cmd.OutOrStdout()
		frameNum := 0

		for {
			frame, err := reader.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "frame %d: error: %v\n", frameNum+1, err)
				// A CRC failure consumed the whole frame; anything else
				// leaves the reader out of sync.
				var crcErr *stream.CRCMismatchError
				if errors.As(err, &crcErr) {
					frameNum++
					continue
				}
				return err
			}

			frameNum++
			printFrame(out, frameNum, frame)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "--- %d frames decoded ---\n", frameNum)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(framesCmd)
}

func printFrame(out io.Writer, n int, f *stream.Frame) {
	fmt.Fprintf(out, "--- Frame %d ---\n", n)
	fmt.Fprintf(out, "  sid=%d seq=%d kind=%s len=%d\n", f.SID, f.Seq, f.Kind, len(f.Payload))

	if f.CRC != nil {
		fmt.Fprintf(out, "  crc=%08x\n", *f.CRC)
	}
	if f.Base != nil {
		fmt.Fprintf(out, "  base=%s\n", f.Base)
	}
	if f.Compression != stream.CompressionNone {
		fmt.Fprintf(out, "  comp=%s\n", f.Compression)
	}
	if f.IsFinal() {
		fmt.Fprintf(out, "  final=true\n")
	}
	if len(f.Payload) == 0 {
		return
	}

	switch f.Kind {
	case stream.KindDoc, stream.KindSave, stream.KindState:
		doc, err := bdoc.DecodeWithOptions(f.Payload, cfg.CodecOptions())
		if err != nil {
			fmt.Fprintf(out, "  payload: undecodable: %v\n", err)
			return
		}
		for line := range bdoc.Walk(doc, 1) {
			fmt.Fprintln(out, line)
		}
	case stream.KindErr:
		ev, err := stream.ParseErrorEvent(f.Payload)
		if err != nil {
			fmt.Fprintf(out, "  payload: undecodable: %v\n", err)
			return
		}
		fmt.Fprintf(out, "  error: %s: %s\n", ev.Code, ev.Message)
	default:
		fmt.Fprintf(out, "  payload: %d bytes\n", len(f.Payload))
	}
}
