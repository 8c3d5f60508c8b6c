package cqcode

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"LagrangeGo/onebot"
)

// CQCode 表示一个已解析的 CQ 码
type CQCode struct {
	Type   string            // CQ 码类型，如 "at", "image"
	Params map[string]string // 参数字典
	Raw    string            // 原始字符串
}

var cqRe = regexp.MustCompile(`\[CQ:([^,\]]+)((?:,[^,=\]]+=[^,\]]*)*)\]`)

// Parse 解析单个 CQ 码字符串
func Parse(s string) (*CQCode, error) {
	match := cqRe.FindStringSubmatch(s)
	if match == nil {
		return nil, fmt.Errorf("无效的CQ码格式: %s", s)
	}

	cq := &CQCode{
		Type:   match[1],
		Params: make(map[string]string),
		Raw:    match[0],
	}

	for _, param := range strings.Split(match[2], ",") {
		if param == "" {
			continue
		}
		parts := strings.SplitN(param, "=", 2)
		if len(parts) == 2 {
			cq.Params[parts[0]] = onebot.CQUnescape(parts[1])
		}
	}

	return cq, nil
}

// ParseAll 将含 CQ 码的文本拆分为消息段，普通文本落入 text 段
func ParseAll(text string) []*onebot.Element {
	var elements []*onebot.Element
	appendText := func(s string) {
		if s == "" {
			return
		}
		elements = append(elements, &onebot.Element{
			ElementType: onebot.TextType,
			Data:        onebot.Text{Text: onebot.CQUnescape(s)},
		})
	}

	last := 0
	for _, loc := range cqRe.FindAllStringIndex(text, -1) {
		appendText(text[last:loc[0]])
		last = loc[1]

		cq, err := Parse(text[loc[0]:loc[1]])
		if err != nil {
			continue
		}
		switch cq.Type {
		case "face":
			elements = append(elements, &onebot.Element{
				ElementType: onebot.FaceType,
				Data:        onebot.Face{Id: cq.Params["id"]},
			})
		case "image":
			elements = append(elements, &onebot.Element{
				ElementType: onebot.ImageType,
				Data:        onebot.Image{File: cq.Params["file"], Url: cq.Params["url"]},
			})
		case "at":
			elements = append(elements, &onebot.Element{
				ElementType: onebot.AtType,
				Data:        onebot.At{Uid: cq.Params["qq"]},
			})
		case "reply":
			elements = append(elements, &onebot.Element{
				ElementType: onebot.ReplyType,
				Data:        onebot.Reply{Id: cq.Params["id"]},
			})
		}
	}
	appendText(text[last:])
	return elements
}

// Format 由消息段类型与参数构造 CQ 码字符串，text 段返回转义后的纯文本
func Format(segType string, params map[string]string) string {
	if segType == "text" {
		return onebot.CQEscape(params["text"])
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("[CQ:")
	sb.WriteString(segType)
	for _, k := range keys {
		sb.WriteString(",")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(onebot.CQEscape(params[k]))
	}
	sb.WriteString("]")
	return sb.String()
}
