package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// Client implements the ai.ModelClient interface using Ollama as the backend.
// Requests are bounded by a weighted semaphore so that a locally hosted model
// is not flooded by parallel summary, slide and correction requests.
type Client struct {
	responseModel string
	parsingModel  string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewClientParams contains configuration options for creating a new Client.
type NewClientParams struct {
	ResponseModel string
	ParsingModel  string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates a new Ollama-based model client.
// It connects to the Ollama server at the given BaseURL (or the default if empty).
func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: headers,
			rt:      http.DefaultTransport,
		},
	}

	limit := params.MaxConcurrentRequests
	if limit <= 0 {
		limit = 1
	}

	parsing := params.ParsingModel
	if parsing == "" {
		parsing = params.ResponseModel
	}

	return &Client{
		responseModel: params.ResponseModel,
		parsingModel:  parsing,
		reqLock:       semaphore.NewWeighted(limit),
		Client:        api.NewClient(u, httpClient),
	}, nil
}
