package course

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"drill-talk/internal/model"
)

// Load 从指定路径加载课程数据。
func Load(path string) (map[string]model.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read courses: %w", err)
	}

	var list []model.Course
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse courses: %w", err)
	}

	if len(list) == 0 {
		// 空课表等于没有训练内容，视为配置错误。
		return nil, fmt.Errorf("no course data in %s, this is not allowed", path)
	}

	courses := make(map[string]model.Course, len(list))
	for _, c := range list {
		if c.Key == "" {
			return nil, fmt.Errorf("course with empty key in %s", path)
		}
		courses[c.Key] = c
	}
	return courses, nil
}

// Registry 是课程名到课程内容的只读映射。
// Reload 整体换表，读者要么看到旧表要么看到新表，不存在半新半旧。
type Registry struct {
	mu      sync.RWMutex
	path    string
	courses map[string]model.Course
}

// NewRegistry 加载初始课表并返回注册表。
func NewRegistry(path string) (*Registry, error) {
	courses, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Registry{path: path, courses: courses}, nil
}

// Reload 重新加载课表。加载失败时保留旧表并返回错误。
func (r *Registry) Reload() error {
	courses, err := Load(r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.courses = courses
	r.mu.Unlock()
	return nil
}

// Match 在学员消息中查找课程名（子串匹配），返回第一个命中的课程。
// 多个课程名同时出现时按课程名排序取第一个，保证结果确定。
func (r *Registry) Match(text string) (model.Course, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.courses))
	for key := range r.courses {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if strings.Contains(text, key) {
			return r.courses[key], true
		}
	}
	return model.Course{}, false
}

// Get 按课程名精确查找。
func (r *Registry) Get(key string) (model.Course, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[key]
	return c, ok
}

// Keys 返回排序后的课程名列表，用于发送课程菜单。
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.courses))
	for key := range r.courses {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
