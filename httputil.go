package jijin

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"github.com/xiechanglei/xie-jijin/date"
	"golang.org/x/net/html/charset"
)

// contains http utils to deal with remote quote endpoints

// fetchTimeout bounds every single fetch. Upstream hosts are scraping
// targets that can hang; without it a single fund would stall the batch.
const fetchTimeout = 15 * time.Second

// NewClient returns the http client used against quote endpoints.
func NewClient() *http.Client {
	return &http.Client{Timeout: fetchTimeout}
}

// diskCache implements a simple disk cache for HTTP responses
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	// get from disk
	// diskcache implements a unique key per day, so the local tmp expires every day.
	key := fmt.Sprintf("%s %s %s", date.Today().String(), req.Method, req.URL.String())
	key = fmt.Sprintf("%x", sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v/%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	// otherwise attempt to store it in cache

	err = c.put(key, resp)
	if err != nil {
		log.Printf("cache write err (ignored): %v\n", err)
	}
	return resp, nil
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	file := filepath.Join(os.TempDir(), key)
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	file := filepath.Join(os.TempDir(), key)

	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}

	_, err = f.Write(content)
	f.Close()
	return err
}

// NewDailyClient returns a client with an on-disk response cache that
// expires every day. It fits the heavyweight payloads that only change once
// per trading day (full history series, fund archives).
func NewDailyClient() *http.Client {
	client := NewClient()
	client.Transport = &diskCache{http.DefaultTransport}
	return client
}

// get issues a context-bound GET request.
func get(ctx context.Context, client *http.Client, addr string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// Jwget performs an HTTP GET request and unmarshals the JSON response into the provided data structure.
func Jwget(ctx context.Context, client *http.Client, addr string, data interface{}) error {
	resp, err := get(ctx, client, addr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}

// Twget performs an HTTP GET request and returns the response body as text.
//
// The body encoding comes from the Content-Type header's charset parameter,
// UTF-8 when absent. Several of the scraped endpoints still answer in GBK or
// GB18030, so the bytes must be transcoded before being treated as a string.
func Twget(ctx context.Context, client *http.Client, addr string) (string, error) {
	return TwgetHeader(ctx, client, addr, nil)
}

// TwgetHeader is Twget with extra request headers, for endpoints that
// require a Referer before answering.
func TwgetHeader(ctx context.Context, client *http.Client, addr string, header http.Header) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return "", err
	}
	for key, values := range header {
		req.Header[key] = values
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	body := io.Reader(resp.Body)
	if label := charsetOf(resp.Header.Get("Content-Type")); label != "" {
		body, err = charset.NewReaderLabel(label, body)
		if err != nil {
			return "", fmt.Errorf("unsupported charset %q from %v: %w", label, resp.Request.URL.Host, err)
		}
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// charsetOf extracts the charset parameter from a Content-Type header value.
// It returns "" for a missing or unparseable header, which means UTF-8.
func charsetOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
