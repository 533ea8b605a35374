package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/papercomputeco/gemchat/pkg/gemini"
)

// fakeClient is an in-process gemini.Client. It answers with body (decoded as
// an endpoint response) or err, optionally waiting for release first.
type fakeClient struct {
	mu       sync.Mutex
	requests []*gemini.GenerateContentRequest
	body     string
	err      error
	release  chan struct{}
}

func newFakeClient(body string) *fakeClient {
	return &fakeClient{body: body}
}

func (f *fakeClient) GenerateContent(ctx context.Context, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	release, body, err := f.release, f.body, f.err
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	var resp gemini.GenerateContentResponse
	if jsonErr := json.Unmarshal([]byte(body), &resp); jsonErr != nil {
		return nil, jsonErr
	}
	return &resp, nil
}

func (f *fakeClient) Requests() []*gemini.GenerateContentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*gemini.GenerateContentRequest(nil), f.requests...)
}

// hold makes the next calls block until the returned func is called.
func (f *fakeClient) hold() (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.release = ch
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// unreadable is an image whose bytes can never be read.
type unreadable struct{}

func (unreadable) Name() string      { return "gone.jpg" }
func (unreadable) MediaType() string { return "image/jpeg" }
func (unreadable) Size() int64       { return 1024 }
func (unreadable) Open() (io.ReadCloser, error) {
	return nil, errors.New("file was deleted")
}
