package vvm

import (
	"archive/tar"
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/janluke/embfile/compression"
	"github.com/janluke/embfile/core"
	"github.com/janluke/embfile/dtype"
)

// Create writes a VVM container. The vector block is spooled to a temporary
// file while pairs stream in, so the entry count does not need to be known
// up front; CreateOptions.VocabSize, when set, is validated against the
// actual count.
//
// A repeated word fails with a DuplicateWordError unless
// CreateOptions.OverwriteOnDuplicate is set, in which case the later vector
// replaces the earlier one in place.
func Create(path string, pairs core.PairSeq, opts *core.CreateOptions) error {
	if opts == nil {
		opts = &core.CreateOptions{}
	}
	if err := core.EnsureTarget(path, opts.Overwrite); err != nil {
		return err
	}
	logger := opts.Log().WithFormat(FormatID).WithPath(path)

	dt := opts.DType
	if !dt.IsValid() {
		dt = dtype.LittleEndianFloat32
	}

	// The spool lands next to the target so it stays on the same filesystem.
	spool, err := os.CreateTemp(filepath.Dir(path), ".vvm-vectors-*")
	if err != nil {
		return err
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	var (
		words      []string
		positions  = make(map[string]int)
		vectorSize = -1
		rowBytes   int64
		buf        []byte
		i          int
	)
	bw := bufio.NewWriterSize(spool, 1<<16)
	for wv, err := range pairs {
		if err != nil {
			return err
		}
		// The vocabulary is newline-delimited, and a trailing '\r' would be
		// stripped as a line ending on reopen.
		if wv.Word == "" || strings.ContainsAny(wv.Word, "\r\n") {
			return fmt.Errorf("vvm: entry %d has an invalid word %q", i, wv.Word)
		}
		if vectorSize < 0 {
			vectorSize = len(wv.Vector)
			rowBytes = int64(vectorSize) * int64(dt.Size())
		}
		if err := core.CheckVectorSize(i, wv.Vector, vectorSize); err != nil {
			return err
		}
		buf = dtype.Append(dt, buf[:0], wv.Vector)

		if pos, dup := positions[wv.Word]; dup {
			if !opts.OverwriteOnDuplicate {
				return &core.DuplicateWordError{Word: wv.Word, Entry: i}
			}
			logger.Warn("overwriting duplicate word", "word", wv.Word, "entry", i)
			if err := bw.Flush(); err != nil {
				return err
			}
			if _, err := spool.WriteAt(buf, int64(pos)*rowBytes); err != nil {
				return err
			}
			i++
			continue
		}
		positions[wv.Word] = len(words)
		words = append(words, wv.Word)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
		i++
	}
	if vectorSize < 0 {
		return fmt.Errorf("vvm: no pairs provided")
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := core.CheckVocabSize(opts.VocabSize, len(words)); err != nil {
		return err
	}

	meta := metadata{
		FormatVersion: FormatVersion,
		VocabSize:     len(words),
		VectorSize:    vectorSize,
		DType:         dt,
	}
	return writeArchive(path, opts.Compression, meta, words, spool)
}

func writeArchive(path, comp string, meta metadata, words []string, spool *os.File) error {
	out, err := compression.OpenWrite(path, comp)
	if err != nil {
		return err
	}
	defer out.Close()
	tw := tar.NewWriter(out)

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := writeMember(tw, metaMember, int64(len(metaBytes)), func(w io.Writer) error {
		_, err := w.Write(metaBytes)
		return err
	}); err != nil {
		return err
	}

	vocab := strings.Join(words, "\n")
	if len(words) > 0 {
		vocab += "\n"
	}
	if err := writeMember(tw, vocabMember, int64(len(vocab)), func(w io.Writer) error {
		_, err := io.WriteString(w, vocab)
		return err
	}); err != nil {
		return err
	}

	spoolSize, err := spool.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := writeMember(tw, vectorsMember, spoolSize, func(w io.Writer) error {
		_, err := io.Copy(w, spool)
		return err
	}); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func writeMember(tw *tar.Writer, name string, size int64, write func(io.Writer) error) error {
	hdr := &tar.Header{Name: name, Mode: 0o644, Size: size}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	return write(tw)
}
