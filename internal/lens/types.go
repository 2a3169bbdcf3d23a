package lens

import (
	"time"

	xerrors "OpenLens-Chain/internal/errors"
)

// Profile 是对远端档案字段的本地投影。
type Profile struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURI   string `json:"avatar_uri"`
	// Signless 表示该档案已授权中继代发，无需逐笔签名。
	Signless bool `json:"signless"`
}

// Publication 是一篇发布（根帖或评论）。ParentID 为空表示根帖。
type Publication struct {
	ID                string    `json:"id"`
	AuthorID          string    `json:"author_id"`
	AuthorHandle      string    `json:"author_handle"`
	AuthorDisplayName string    `json:"author_display_name"`
	CreatedAt         time.Time `json:"created_at"`
	Text              string    `json:"text"`
	ParentID          string    `json:"parent_id,omitempty"`
}

// BroadcastResult 是一次广播提交的回执：二者至多其一非空。
type BroadcastResult struct {
	ID     string `json:"id"`
	TxHash string `json:"txHash"`
}

// Empty 判断回执是否既无发布 ID 也无交易哈希。
func (r *BroadcastResult) Empty() bool {
	return r == nil || (r.ID == "" && r.TxHash == "")
}

// TransactionStatus 是交易状态轮询的结果。
type TransactionStatus struct {
	Status string `json:"status"`
	TxHash string `json:"txHash"`
}

// 交易的终态取值。
const (
	TxStatusComplete = "COMPLETE"
	TxStatusFailed   = "FAILED"
)

const (
	CodeChallengeFailed    xerrors.Code = "LENS_CHALLENGE_FAILED"
	CodeBroadcastFailed    xerrors.Code = "LENS_BROADCAST_FAILED"
	CodeTypedDataFailed    xerrors.Code = "LENS_TYPED_DATA_FAILED"
	CodeTransactionPending xerrors.Code = "LENS_TRANSACTION_PENDING"
)

func init() {
	xerrors.Register(CodeChallengeFailed, xerrors.Attributes{
		Message:   "challenge retrieval failed",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
	xerrors.Register(CodeBroadcastFailed, xerrors.Attributes{
		Message:   "broadcast submit failed",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     true,
	})
	xerrors.Register(CodeTypedDataFailed, xerrors.Attributes{
		Message:   "typed data construction failed",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     false,
	})
	xerrors.Register(CodeTransactionPending, xerrors.Attributes{
		Message:   "transaction not yet complete",
		Severity:  xerrors.SeverityInfo,
		Retryable: true,
		Alert:     false,
	})
}

// remoteProfile 是远端档案的原始结构。
type remoteProfile struct {
	ID     string `json:"id"`
	Handle struct {
		LocalName string `json:"localName"`
	} `json:"handle"`
	Metadata struct {
		DisplayName string `json:"displayName"`
		Bio         string `json:"bio"`
		Picture     struct {
			Optimized struct {
				URI string `json:"uri"`
			} `json:"optimized"`
			Raw struct {
				URI string `json:"uri"`
			} `json:"raw"`
			URI string `json:"uri"`
		} `json:"picture"`
	} `json:"metadata"`
	Signless bool `json:"signless"`
}

// project 将远端档案投影为本地 Profile。
// 头像地址按 optimized、raw、顶层 uri 的顺序回退。
func (p remoteProfile) project() Profile {
	avatar := p.Metadata.Picture.Optimized.URI
	if avatar == "" {
		avatar = p.Metadata.Picture.Raw.URI
	}
	if avatar == "" {
		avatar = p.Metadata.Picture.URI
	}
	return Profile{
		ID:          p.ID,
		Handle:      p.Handle.LocalName,
		DisplayName: p.Metadata.DisplayName,
		Bio:         p.Metadata.Bio,
		AvatarURI:   avatar,
		Signless:    p.Signless,
	}
}

// remotePublication 是远端发布的原始结构。
type remotePublication struct {
	ID string `json:"id"`
	By remoteProfile `json:"by"`
	Metadata struct {
		Content string `json:"content"`
	} `json:"metadata"`
	CommentOn struct {
		ID string `json:"id"`
	} `json:"commentOn"`
	CreatedAt   string `json:"createdAt"`
	IsEncrypted bool   `json:"isEncrypted"`
}

func (p remotePublication) project() Publication {
	createdAt, _ := time.Parse(time.RFC3339, p.CreatedAt)
	return Publication{
		ID:                p.ID,
		AuthorID:          p.By.ID,
		AuthorHandle:      p.By.Handle.LocalName,
		AuthorDisplayName: p.By.Metadata.DisplayName,
		CreatedAt:         createdAt,
		Text:              p.Metadata.Content,
		ParentID:          p.CommentOn.ID,
	}
}
