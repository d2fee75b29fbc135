// Package httpclient is the outbound HTTP client shared by the recognition
// back ends, the LLM adapter and the secret providers. It adds base URLs,
// default headers, authentication, multipart uploads, status classification
// and retry of transient failures on top of net/http.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://whisper:8000",
//	    Timeout: 10 * time.Minute,
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//	resp, err := client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
package httpclient
