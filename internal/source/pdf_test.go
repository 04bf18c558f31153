package source

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeImage emulates pdftoppm by creating the output file named by the prefix
func writeImage(args []string, suffix string) error {
	prefix := args[len(args)-1]
	return os.WriteFile(prefix+suffix, []byte("png"), 0o600)
}

func TestPDFLoader_TextLayer(t *testing.T) {
	path := writeFile(t, "claim.pdf", "%PDF-1.4")
	runner := newStubRunner()
	runner.on("pdftotext", func(args []string) ([]byte, error) {
		return []byte("Policy Number: PD-1\fName of Insured: Kim\f"), nil
	})
	a := NewAdapter(testConfig(), runner, nil)

	res := a.Read(context.Background(), path)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Policy Number: PD-1\nName of Insured: Kim", res.Text)
	assert.Zero(t, runner.count("pdftoppm"))
	assert.Zero(t, runner.count("tesseract"))
}

func TestPDFLoader_OCRsOnlyBlankPages(t *testing.T) {
	path := writeFile(t, "claim.pdf", "%PDF-1.4")
	runner := newStubRunner()
	runner.on("pdftotext", func(args []string) ([]byte, error) {
		return []byte("Policy Number: PD-2\f   \n\fDescription: roof leak\f"), nil
	})
	runner.on("pdftoppm", func(args []string) ([]byte, error) {
		// -f 2 -l 2 ... -singlefile <pdf> <prefix>
		assert.Equal(t, "-f", args[0])
		assert.Equal(t, "2", args[1])
		assert.Contains(t, args, "-singlefile")
		return nil, writeImage(args, ".png")
	})
	runner.on("tesseract", func(args []string) ([]byte, error) {
		return []byte("Name of Insured: Scanned Person"), nil
	})
	a := NewAdapter(testConfig(), runner, nil)

	res := a.Read(context.Background(), path)
	assert.Equal(t, "pdf-text+ocr", res.Method)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, "Policy Number: PD-2\nName of Insured: Scanned Person\nDescription: roof leak", res.Text)
	assert.Equal(t, 1, runner.count("pdftoppm"))
	assert.Equal(t, 1, runner.count("tesseract"))
}

func TestPDFLoader_BlankPageOCRFailureIsWarning(t *testing.T) {
	path := writeFile(t, "claim.pdf", "%PDF-1.4")
	runner := newStubRunner()
	runner.on("pdftotext", func(args []string) ([]byte, error) {
		return []byte("Policy Number: PD-3\f\f"), nil
	})
	runner.on("pdftoppm", func(args []string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	a := NewAdapter(testConfig(), runner, nil)

	res := a.Read(context.Background(), path)
	assert.Equal(t, "Policy Number: PD-3", res.Text)
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "page 2:"))
}

func TestPDFLoader_FullOCRWhenTextLayerFails(t *testing.T) {
	path := writeFile(t, "claim.pdf", "%PDF-1.4")
	runner := newStubRunner()
	runner.on("pdftotext", func(args []string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	runner.on("pdftoppm", func(args []string) ([]byte, error) {
		if err := writeImage(args, "-1.png"); err != nil {
			return nil, err
		}
		return nil, writeImage(args, "-2.png")
	})
	page := 0
	runner.on("tesseract", func(args []string) ([]byte, error) {
		page++
		if page == 1 {
			return []byte("first"), nil
		}
		return []byte("second"), nil
	})
	a := NewAdapter(testConfig(), runner, nil)

	res := a.Read(context.Background(), path)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "first\nsecond", res.Text)
	assert.NotEmpty(t, res.Warnings)
}

func TestPDFLoader_RawFallbackWhenToolsMissing(t *testing.T) {
	path := writeFile(t, "claim.pdf", "Policy Number: RAW-5\nnot a real pdf")
	a := NewAdapter(testConfig(), newStubRunner(), nil)

	res := a.Read(context.Background(), path)
	assert.Equal(t, "raw-fallback", res.Method)
	assert.Equal(t, "Policy Number: RAW-5\nnot a real pdf", res.Text)
	assert.Len(t, res.Warnings, 2)
}

func TestPDFLoader_MaxPages(t *testing.T) {
	path := writeFile(t, "claim.pdf", "%PDF-1.4")
	runner := newStubRunner()
	runner.on("pdftotext", func(args []string) ([]byte, error) {
		return []byte("one\ftwo\fthree\f"), nil
	})
	cfg := testConfig()
	cfg.MaxPages = 2
	a := NewAdapter(cfg, runner, nil)

	res := a.Read(context.Background(), path)
	assert.Equal(t, "one\ntwo", res.Text)
	assert.Equal(t, 2, res.Pages)
}
