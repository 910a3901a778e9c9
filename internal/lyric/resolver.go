// Package lyric 把歌词文本解析为音源采样 id。
// 这是渲染核心之外的协作者：核心只消费解析结果，
// 引擎本身永远不接触歌词文本。
package lyric

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
)

// Resolver 把一段歌词解析为采样 id。
type Resolver interface {
	Resolve(lyric string) string
}

// PinyinResolver 用不带声调的拼音作为采样 id：
// 汉字取首个读音的拼音（如 "啦" → "la"），
// 其余文本直接小写透传（已是音素名的场景）。
type PinyinResolver struct {
	args pinyin.Args
}

// NewPinyinResolver 创建拼音解析器。
func NewPinyinResolver() *PinyinResolver {
	args := pinyin.NewArgs()
	args.Style = pinyin.Normal
	return &PinyinResolver{args: args}
}

// Resolve 实现 Resolver。空歌词返回空 id（渲染侧按静音处理）。
func (r *PinyinResolver) Resolve(lyric string) string {
	lyric = strings.TrimSpace(lyric)
	if lyric == "" {
		return ""
	}

	if hasHan(lyric) {
		syllables := pinyin.LazyPinyin(lyric, r.args)
		if len(syllables) > 0 {
			// 单个音符只对应一个音节，多余的忽略
			return syllables[0]
		}
	}
	return strings.ToLower(lyric)
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
