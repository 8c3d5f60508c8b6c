package cqcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LagrangeGo/onebot"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cq, err := Parse("[CQ:at,qq=123456]")
	require.NoError(t, err)
	assert.Equal(t, "at", cq.Type)
	assert.Equal(t, "123456", cq.Params["qq"])

	cq, err = Parse("[CQ:image,file=a.png,url=https://example.com/a.png]")
	require.NoError(t, err)
	assert.Equal(t, "image", cq.Type)
	assert.Equal(t, "a.png", cq.Params["file"])
	assert.Equal(t, "https://example.com/a.png", cq.Params["url"])

	_, err = Parse("普通文本")
	assert.Error(t, err)
}

func TestParseAll(t *testing.T) {
	t.Parallel()

	elements := ParseAll("你好[CQ:at,qq=123]世界")
	require.Len(t, elements, 3)

	assert.Equal(t, onebot.TextType, elements[0].ElementType)
	assert.Equal(t, "你好", elements[0].Data.(onebot.Text).Text)

	assert.Equal(t, onebot.AtType, elements[1].ElementType)
	assert.Equal(t, "123", elements[1].Data.(onebot.At).Uid)

	assert.Equal(t, onebot.TextType, elements[2].ElementType)
	assert.Equal(t, "世界", elements[2].Data.(onebot.Text).Text)
}

func TestParseAll_PlainText(t *testing.T) {
	t.Parallel()

	elements := ParseAll("没有CQ码")
	require.Len(t, elements, 1)
	assert.Equal(t, onebot.TextType, elements[0].ElementType)
}

func TestParseAll_UnescapesText(t *testing.T) {
	t.Parallel()

	elements := ParseAll("a &#91;b&#93; &amp; c")
	require.Len(t, elements, 1)
	assert.Equal(t, "a [b] & c", elements[0].Data.(onebot.Text).Text)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[CQ:at,qq=123]", Format("at", map[string]string{"qq": "123"}))
	assert.Equal(t, "你好&#44;世界", Format("text", map[string]string{"text": "你好,世界"}))

	// 参数按键名排序，输出稳定
	assert.Equal(t, "[CQ:image,file=a,url=b]", Format("image", map[string]string{"url": "b", "file": "a"}))
}

func TestEscapeRoundTrip(t *testing.T) {
	t.Parallel()

	raw := "[CQ:at,qq=1] & 你好,世界"
	assert.Equal(t, raw, onebot.CQUnescape(onebot.CQEscape(raw)))
}
