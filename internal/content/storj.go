package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	xerrors "OpenLens-Chain/internal/errors"
)

const defaultStorjAPIURL = "https://www.storj-ipfs.com"

// CodePinFailed 表示内容固定失败。
const CodePinFailed xerrors.Code = "CONTENT_PIN_FAILED"

func init() {
	xerrors.Register(CodePinFailed, xerrors.Attributes{
		Message:   "content pin failed",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     false,
	})
}

// StorjConfig 描述 Storj IPFS 网关的接入信息。
type StorjConfig struct {
	APIURL   string
	Username string
	Password string
	Timeout  time.Duration
}

// StorjProvider 通过 Storj 的 IPFS 网关固定内容。
type StorjProvider struct {
	apiURL     string
	username   string
	password   string
	httpClient *http.Client
}

// NewStorjProvider 创建 StorjProvider。
func NewStorjProvider(cfg StorjConfig) (*StorjProvider, error) {
	if strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.Password) == "" {
		return nil, errors.New("未配置 Storj 网关的用户名或密码")
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = defaultStorjAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StorjProvider{
		apiURL:     apiURL,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Pin 将 JSON 序列化后的内容上传到网关，返回网关可取回的 URI。
func (p *StorjProvider) Pin(ctx context.Context, v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", xerrors.Wrap(CodePinFailed, err, "序列化内容失败")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	field, err := writer.CreateFormField("path")
	if err != nil {
		return "", xerrors.Wrap(CodePinFailed, err, "构建上传表单失败")
	}
	if _, err := field.Write(encoded); err != nil {
		return "", xerrors.Wrap(CodePinFailed, err, "写入上传表单失败")
	}
	if err := writer.Close(); err != nil {
		return "", xerrors.Wrap(CodePinFailed, err, "关闭上传表单失败")
	}

	endpoint := p.apiURL + "/api/v0/add?cid-version=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", xerrors.Wrap(CodePinFailed, err, "构建上传请求失败")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(p.username, p.password)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", xerrors.Wrap(CodePinFailed, err, "上传内容失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", xerrors.New(CodePinFailed,
			fmt.Sprintf("网关返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt))))
	}

	var decoded struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", xerrors.Wrap(CodePinFailed, err, "解析网关响应失败")
	}
	if decoded.Hash == "" {
		return "", xerrors.New(CodePinFailed, "网关响应缺少内容哈希")
	}
	return p.GatewayURL(decoded.Hash), nil
}

// GatewayURL 将内容哈希或 ipfs:// URI 转换为网关取回地址。
func (p *StorjProvider) GatewayURL(uriOrHash string) string {
	return fmt.Sprintf("%s/ipfs/%s", p.apiURL, strings.TrimPrefix(uriOrHash, "ipfs://"))
}

var _ Pinner = (*StorjProvider)(nil)
