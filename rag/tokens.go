package rag

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// TiktokenCounter 基于 tiktoken 的 token 计数器。编码数据首次使用时
// 加载；加载失败回退到字符估算并记录警告。
type TiktokenCounter struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
	logger   *zap.Logger
}

// NewTiktokenCounter 创建计数器。encoding 为空时使用 cl100k_base。
func NewTiktokenCounter(encoding string, logger *zap.Logger) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TiktokenCounter{encoding: encoding, logger: logger}
}

func (c *TiktokenCounter) init() error {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.initErr = err
			return
		}
		c.enc = enc
	})
	return c.initErr
}

// CountTokens 返回文本的 token 数；编码不可用时按 len/4 估算。
func (c *TiktokenCounter) CountTokens(text string) int {
	if err := c.init(); err != nil {
		c.logger.Warn("tiktoken unavailable, falling back to estimate", zap.Error(err))
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// EstimatorCounter 简单字符估算计数器（约 4 字符 1 token），
// 用于测试和无编码数据的环境。
type EstimatorCounter struct{}

func (EstimatorCounter) CountTokens(text string) int {
	return len(text) / 4
}
