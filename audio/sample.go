package audio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/pkg/errors"

	"github.com/lixenwraith/harmonium/constant"
)

// LoopEnd selects where the sample loop region ends
type LoopEnd int

const (
	LoopEndBuffer LoopEnd = iota // Loop to the last sample
	LoopEndFixed                 // Loop at constant.LoopEndFixed
)

// ParseLoopEnd maps a config string to LoopEnd, unknown values select the buffer end
func ParseLoopEnd(s string) LoopEnd {
	if strings.EqualFold(s, "fixed") {
		return LoopEndFixed
	}
	return LoopEndBuffer
}

func (l LoopEnd) String() string {
	if l == LoopEndFixed {
		return "fixed"
	}
	return "buffer"
}

// Sample is the decoded instrument waveform shared read-only by every voice
type Sample struct {
	buf       *beep.Buffer
	loopStart int
	loopEnd   int
}

// NewSample binds loop points to a decoded buffer
// Loop points beyond the buffer are pulled in; a degenerate region loops the whole buffer
func NewSample(buf *beep.Buffer, mode LoopEnd) *Sample {
	n := buf.Len()
	sr := buf.Format().SampleRate

	start := sr.N(constant.LoopStart)
	end := n
	if mode == LoopEndFixed {
		end = min(sr.N(constant.LoopEndFixed), n)
	}
	if start >= end {
		start = 0
	}

	return &Sample{buf: buf, loopStart: start, loopEnd: end}
}

// Format returns the decoded sample format
func (s *Sample) Format() beep.Format {
	return s.buf.Format()
}

// Len returns the sample length in frames
func (s *Sample) Len() int {
	return s.buf.Len()
}

// LoopRegion returns loop start and end in frames
func (s *Sample) LoopRegion() (start, end int) {
	return s.loopStart, s.loopEnd
}

// loop returns an independent cursor over the shared buffer that plays the attack once,
// then repeats [loopStart, loopEnd) forever
func (s *Sample) loop() beep.Streamer {
	return beep.Seq(
		s.buf.Streamer(0, s.loopEnd),
		beep.Loop(-1, s.buf.Streamer(s.loopStart, s.loopEnd)),
	)
}

// AssetSource fetches raw asset bytes by name
type AssetSource interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileSource opens assets from the filesystem, relative names resolve under Dir
type FileSource struct {
	Dir string
}

// Open implements AssetSource
func (f FileSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path := name
	if f.Dir != "" && !filepath.IsAbs(name) {
		path = filepath.Join(f.Dir, name)
	}
	return os.Open(path)
}

// HTTPSource fetches assets with a single GET, no retry
type HTTPSource struct {
	Client *http.Client
}

// Open implements AssetSource
func (h HTTPSource) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("GET %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

// AutoSource routes http(s) URLs to HTTP and everything else to the filesystem
type AutoSource struct {
	Files FileSource
	HTTP  HTTPSource
}

// Open implements AssetSource
func (a AutoSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return a.HTTP.Open(ctx, name)
	}
	return a.Files.Open(ctx, name)
}

// DecodeWAV decodes a complete WAV stream into memory
func DecodeWAV(r io.Reader) (*beep.Buffer, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return nil, errors.WithMessage(ErrAssetDecode, err.Error())
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, errors.WithMessage(ErrAssetDecode, err.Error())
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyAsset
	}
	return buf, nil
}

// fetchDecode performs the blocking fetch-then-decode step for one asset
func fetchDecode(ctx context.Context, src AssetSource, name string) (*beep.Buffer, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, errors.WithMessagef(ErrAssetFetch, "%s: %v", name, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.WithMessagef(ErrAssetFetch, "%s: %v", name, err)
	}

	buf, err := DecodeWAV(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.WithMessage(err, name)
	}
	return buf, nil
}

// LoadSample fetches and decodes the instrument sample
func LoadSample(ctx context.Context, src AssetSource, name string, mode LoopEnd) (*Sample, error) {
	buf, err := fetchDecode(ctx, src, name)
	if err != nil {
		return nil, err
	}
	return NewSample(buf, mode), nil
}

// LoadImpulse fetches and decodes the reverb impulse response
func LoadImpulse(ctx context.Context, src AssetSource, name string) (*beep.Buffer, error) {
	return fetchDecode(ctx, src, name)
}
