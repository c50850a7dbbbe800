// 包 names：国家代码到本地化名称的解析，数据来自 CLDR（golang.org/x/text）
package names

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var ErrBadLanguage = errors.New("names: bad language tag")

// 文档注释：基于 CLDR 的国家名称服务
// 背景：名称解析不属于栅格判定核心，作为外部协作方注入 Locator；不持有可变状态，可并发使用。
// 约束：lang 为空时使用英语；无法解析的语言标签返回错误；未知国家代码返回空串。
type Display struct{}

func New() *Display { return &Display{} }

func (d *Display) Name(code, lang string) (string, error) {
	tag := language.English
	if lang = strings.TrimSpace(lang); lang != "" {
		t, err := language.Parse(lang)
		if err != nil {
			return "", fmt.Errorf("%w %q: %v", ErrBadLanguage, lang, err)
		}
		tag = t
	}
	region, err := language.ParseRegion(strings.TrimSpace(code))
	if err != nil {
		return "", nil
	}
	// 无显示数据的标签（und、x-foo 等）得到 nil Namer
	if nm := display.Regions(tag); nm != nil {
		if n := nm.Name(region); n != "" {
			return n, nil
		}
	}
	// 目标语言缺少该地区翻译时回退英语
	return display.English.Regions().Name(region), nil
}
