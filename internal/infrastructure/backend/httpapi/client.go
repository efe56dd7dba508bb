package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kirillkom/docdesk/internal/core/domain"
	"github.com/kirillkom/docdesk/internal/infrastructure/resilience"
)

const DefaultBaseURL = "http://127.0.0.1:8000"

type Options struct {
	// Timeout bounds a whole call; zero leaves it to the transport.
	Timeout  time.Duration
	Executor *resilience.Executor
	HTTP     *http.Client
}

// Client talks to the document question-answering backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string) *Client {
	return NewWithOptions(baseURL, Options{})
}

func NewWithOptions(baseURL string, opts Options) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		executor:   opts.Executor,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Upload(ctx context.Context, files []domain.UploadFile) (domain.RawDocument, error) {
	body, contentType, err := encodeFiles(files)
	if err != nil {
		return nil, fmt.Errorf("encode upload form: %w", err)
	}

	var out domain.RawDocument
	err = c.execute(ctx, "upload", func(ctx context.Context) error {
		return c.send(ctx, http.MethodPost, "/upload", contentType, bytes.NewReader(body), &out, "upload")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	var out domain.QueryResponse
	err := c.execute(ctx, "query", func(ctx context.Context) error {
		return c.postJSON(ctx, "/query", req, &out, "query")
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Report(ctx context.Context) (domain.RawDocument, error) {
	var out domain.RawDocument
	err := c.execute(ctx, "report", func(ctx context.Context) error {
		return c.send(ctx, http.MethodGet, "/report", "", nil, &out, "report")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	err := c.executor.Execute(ctx, "backend."+operation, fn, classifyBackendError)
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrBackendUnavailable, operation, err)
	}
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeFiles writes every file as a "files" part, preserving order.
func encodeFiles(files []domain.UploadFile) ([]byte, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
