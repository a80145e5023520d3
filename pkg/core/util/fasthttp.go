package util

import (
	"fmt"
	"time"

	json "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

const defaultHttpTimeout = 10 * time.Second

type Header struct {
	Key   string
	Value string
}

// Http 告警通道和运维机器人使用的 JSON POST 客户端
type Http struct {
	Url      string
	Body     interface{}
	Headers  []Header
	Timeout  time.Duration
	Response *fasthttp.Response
}

func NewHttp(url string, body interface{}, headers ...Header) *Http {
	return &Http{
		Url:     url,
		Body:    body,
		Headers: headers,
		Timeout: defaultHttpTimeout,
	}
}

// WithTimeout 设置单次请求超时
func (h *Http) WithTimeout(timeout time.Duration) *Http {
	if timeout > 0 {
		h.Timeout = timeout
	}
	return h
}

// Post 非 2xx 响应返回错误，成功时响应体需通过 Result 或 Text 读取
func (h *Http) Post() error {
	request := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(request)

	request.Header.SetMethod(fasthttp.MethodPost)
	request.SetRequestURI(h.Url)
	request.Header.SetContentType("application/json")
	for _, header := range h.Headers {
		request.Header.Set(header.Key, header.Value)
	}

	if h.Body != nil {
		data, err := json.Marshal(h.Body)
		if err != nil {
			return err
		}
		request.SetBody(data)
	}

	response := fasthttp.AcquireResponse()
	if err := fasthttp.DoTimeout(request, response, h.Timeout); err != nil {
		fasthttp.ReleaseResponse(response)
		return err
	}

	if code := response.StatusCode(); code < 200 || code >= 300 {
		err := fmt.Errorf("请求失败，状态码: %d，响应: %s", code, string(response.Body()))
		fasthttp.ReleaseResponse(response)
		return err
	}

	h.Response = response
	return nil
}

// Result 以 gjson 解析响应体；响应为空时返回空结果
func (h *Http) Result() (*gjson.Result, error) {
	defer h.Close()
	body := h.Response.Body()
	if len(body) == 0 {
		return &gjson.Result{}, nil
	}
	result := gjson.ParseBytes(body)
	return &result, nil
}

// Text 返回原始响应文本
func (h *Http) Text() string {
	defer h.Close()
	return string(h.Response.Body())
}

func (h *Http) Close() {
	if h.Response != nil {
		fasthttp.ReleaseResponse(h.Response)
		h.Response = nil
	}
}

func HttpPost(uri string, body interface{}, headers ...Header) (*gjson.Result, error) {
	h := NewHttp(uri, body, headers...)
	if err := h.Post(); err != nil {
		return nil, err
	}
	return h.Result()
}
