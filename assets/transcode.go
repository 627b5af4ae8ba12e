package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hfc/utils/images"
)

// TranscodeRequest asks the companion context to convert unsupported bytes
// into a natively decodable bitmap. ID correlates the response; every retry
// sends a fresh one.
type TranscodeRequest struct {
	ID   string
	Data []byte
}

// TranscodeResponse is the companion context's answer.
type TranscodeResponse struct {
	ID     string
	Data   []byte
	Format string
	Width  int
	Height int
	Err    string
}

// TranscodeOptions bound the request/response handshake.
type TranscodeOptions struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// DefaultTranscodeOptions are the production settings.
func DefaultTranscodeOptions() TranscodeOptions {
	return TranscodeOptions{
		Timeout: 10 * time.Second,
		Retries: 2,
		Backoff: 500 * time.Millisecond,
	}
}

// Transcoder sends format-conversion requests to a worker over channels and
// matches responses by correlation id, with timeout, bounded retries and
// backoff between attempts. The worker models the companion rendering
// context of the original design: a separate execution context capable of
// decoding formats the host cannot.
type Transcoder struct {
	requests  chan TranscodeRequest
	responses chan TranscodeResponse
	done      chan struct{}
	opts      TranscodeOptions
	log       *zap.Logger
}

// NewTranscoder starts the worker goroutine serving conversion requests.
func NewTranscoder(opts TranscodeOptions, log *zap.Logger) *Transcoder {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTranscodeOptions().Timeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	t := &Transcoder{
		requests:  make(chan TranscodeRequest),
		responses: make(chan TranscodeResponse),
		done:      make(chan struct{}),
		opts:      opts,
		log:       log.Named("transcode"),
	}
	go t.serve()
	return t
}

// Close stops the worker. Pending Transcode calls fail with a timeout.
func (t *Transcoder) Close() {
	close(t.done)
}

// serve is the companion-context loop: decode whatever arrives, re-encode to
// PNG, answer with the same correlation id.
func (t *Transcoder) serve() {
	for {
		select {
		case <-t.done:
			return
		case req := <-t.requests:
			resp := TranscodeResponse{ID: req.ID}
			img, format, err := images.DecodeAny(req.Data)
			if err != nil {
				resp.Err = err.Error()
			} else if data, err := images.EncodePNG(img); err != nil {
				resp.Err = err.Error()
			} else {
				resp.Data = data
				resp.Format = "png"
				resp.Width = img.Bounds().Dx()
				resp.Height = img.Bounds().Dy()
				t.log.Debug("Payload transcoded",
					zap.String("id", req.ID),
					zap.String("from", format),
					zap.Int("bytes", len(data)))
			}
			select {
			case <-t.done:
				return
			case t.responses <- resp:
			}
		}
	}
}

// Transcode converts unsupported bytes to PNG. One asset's failure never
// blocks others: each attempt is bounded by the configured timeout and the
// whole call gives up after the retry budget.
func (t *Transcoder) Transcode(ctx context.Context, data []byte) (*TranscodeResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= t.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(t.opts.Backoff * time.Duration(attempt)):
			}
		}
		resp, err := t.attempt(ctx, data)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("transcode failed after %d attempts: %w", t.opts.Retries+1, lastErr)
}

func (t *Transcoder) attempt(ctx context.Context, data []byte) (*TranscodeResponse, error) {
	id := uuid.NewString()
	timer := time.NewTimer(t.opts.Timeout)
	defer timer.Stop()

	select {
	case t.requests <- TranscodeRequest{ID: id, Data: data}:
	case <-timer.C:
		return nil, fmt.Errorf("transcode request %s timed out", id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for {
		select {
		case resp := <-t.responses:
			if resp.ID != id {
				// Stale answer from a timed-out attempt; drop it.
				continue
			}
			if resp.Err != "" {
				return nil, fmt.Errorf("transcode %s: %s", id, resp.Err)
			}
			return &resp, nil
		case <-timer.C:
			return nil, fmt.Errorf("transcode response %s timed out", id)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
