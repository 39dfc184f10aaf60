package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/finalframe/internal/logging"
	"github.com/danmuck/finalframe/internal/protocol/frame"
	"github.com/spf13/cobra"
)

func newEncodeCmd(a *app) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Wrap the whole input as one Final Frame packet",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			if err := frame.NewEncoder().WriteFrame(w, payload); err != nil {
				closeOut()
				return fmt.Errorf("encode: %w", err)
			}
			a.logger.Debug().Int("payload_len", len(payload)).Msg("frame encoded")
			return closeOut()
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "payload file (default stdin)")
	cmd.Flags().StringVar(&out, "out", "", "frame output file (default stdout)")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var (
		in       string
		category int
		asHex    bool
	)
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Extract payloads from a stream of Final Frame packets",
		Long: `Decode reads frames until the input is exhausted. The first dropped
frame ends decoding: the stream is not resynchronized.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := cmd.Flags().Changed("category")
			if filter && (category < 0 || category > 255) {
				return fmt.Errorf("category out of range: %d", category)
			}
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			r := frame.NewReader(logging.FrameSink(a.logger))
			if err := decodeAll(r, bytes.NewReader(data), cmd.OutOrStdout(), filter, byte(category), asHex); err != nil {
				return err
			}
			s := r.Stats()
			fmt.Fprintf(cmd.ErrOrStderr(),
				"frames_read=%d frames_dropped=%d invalid_size=%d invalid_footer=%d read_error=%d filtered=%d\n",
				s.FramesRead, s.FramesDropped, s.DroppedInvalidSize, s.DroppedInvalidFooter, s.DroppedReadError, s.Filtered)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "frame file (default stdin)")
	cmd.Flags().IntVar(&category, "category", 0, "only emit payloads whose first byte equals this category")
	cmd.Flags().BoolVar(&asHex, "hex", false, "write one hex-encoded payload per line")
	return cmd
}

func decodeAll(r *frame.Reader, src *bytes.Reader, w io.Writer, filter bool, category byte, asHex bool) error {
	for src.Len() > 0 {
		var f frame.Frame
		var err error
		if filter {
			f, err = r.ReadFrameCategory(src, category)
		} else {
			f, err = r.ReadFrame(src)
		}
		if errors.Is(err, frame.ErrCategoryFiltered) {
			continue
		}
		if err != nil {
			// counted by r; no resync
			return nil
		}
		if asHex {
			_, err = fmt.Fprintln(w, hex.EncodeToString(f.Payload))
		} else {
			_, err = w.Write(f.Payload)
		}
		if err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}
	return nil
}
