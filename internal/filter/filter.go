// Package filter 实现敏感词过滤。
//
// 采用有穷状态机：关键词逐字符建成 trie，匹配时从文本每个起点出发沿链下行，
// 链上允许跳过噪音字符（如夹在敏感词中间的空格、标点），命中叶子即返回。
package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type node struct {
	children map[rune]*node
	// end 标记到此构成一个完整关键词。
	end bool
}

// Filter 是敏感词状态机。Parse 之后只读，可被并发使用。
type Filter struct {
	root *node
}

func New() *Filter {
	return &Filter{root: &node{children: make(map[rune]*node)}}
}

// Add 把一个关键词加入状态机。关键词统一转小写。
func (f *Filter) Add(keyword string) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return
	}

	level := f.root
	for _, ch := range keyword {
		next, ok := level.children[ch]
		if !ok {
			next = &node{children: make(map[rune]*node)}
			level.children[ch] = next
		}
		level = next
	}
	level.end = true
}

// Parse 从文件加载关键词，每行一个。
func (f *Filter) Parse(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open keywords: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		f.Add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read keywords: %w", err)
	}
	return nil
}

// Filter 检查文本是否含有敏感词，返回命中的第一个敏感词，未命中返回空串。
// 匹配过程中不在链上的字符会被跳过，所以"敏 感 词"这类插入干扰也能命中。
func (f *Filter) Filter(message string) string {
	runes := []rune(strings.ToLower(message))
	for start := 0; start < len(runes); start++ {
		level := f.root
		var matched []rune
		for _, ch := range runes[start:] {
			next, ok := level.children[ch]
			if !ok {
				continue
			}
			matched = append(matched, ch)
			if next.end {
				return string(matched)
			}
			level = next
		}
	}
	return ""
}
