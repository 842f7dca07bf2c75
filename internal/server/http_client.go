package server

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charhub/charhub/internal/config"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// maxRedirects 与常见浏览器/cURL 行为保持一致。
const maxRedirects = 10

// NewDownloadClient 返回下载远程图片使用的 http.Client：跟随重定向，整体超时为 download_timeout。
func NewDownloadClient(cfg *config.Config) (*http.Client, error) {
	timeout := 60 * time.Second
	if cfg != nil && cfg.DownloadTimeout.DurationValue() > 0 {
		timeout = cfg.DownloadTimeout.DurationValue()
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}, nil
}

// NewWorkerClient 返回访问缩略图 worker 的 http.Client。超时由每次请求的 context 控制，
// 这里只收紧拨号超时，避免单个 worker 拖慢页面渲染。
func NewWorkerClient(cfg *config.Config) (*http.Client, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	transport.DialContext = (&net.Dialer{
		Timeout:   time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.ResponseHeaderTimeout = time.Second

	return &http.Client{Transport: transport}, nil
}

func newTransport(cfg *config.Config) (*http.Transport, error) {
	transport := defaultTransport.Clone()
	if cfg == nil || !cfg.HasCABundle() {
		return transport, nil
	}

	pool, err := LoadCABundle(cfg.CABundle)
	if err != nil {
		return nil, err
	}
	transport.TLSClientConfig = &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}
	return transport, nil
}

// LoadCABundle 读取 PEM 格式的 CA 文件，作为出站 HTTPS 的唯一信任根。
func LoadCABundle(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ca bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, errors.New("ca bundle contains no PEM certificates")
	}
	return pool, nil
}
