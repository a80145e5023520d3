package util

import (
	"context"
	"errors"
)

// OpsMessage 企业微信/钉钉机器人文本消息
type OpsMessage struct {
	MsgType string      `json:"msgtype"`
	Text    TextContent `json:"text"`
}

type TextContent struct {
	Content string `json:"content"`
}

// SendOpsMessage 向运维群机器人推送文本消息
func SendOpsMessage(ctx context.Context, webhook string, message string) error {
	if webhook == "" {
		return errors.New("未配置运维通知地址")
	}

	result, err := HttpPost(webhook, &OpsMessage{
		MsgType: "text",
		Text:    TextContent{Content: message},
	})
	if err != nil {
		return err
	}

	if code := result.Get("errcode"); code.Exists() && code.Int() != 0 {
		return errors.New(result.Get("errmsg").String())
	}
	return nil
}
