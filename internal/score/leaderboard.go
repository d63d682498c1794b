package score

import (
	"sort"
	"sync"
)

// rankMinRecords 样本不足时不给排名，避免前几个学员拿到没有意义的百分位。
const rankMinRecords = 10

type entry struct {
	turns int
	name  string
}

// Leaderboard 按课程累计历史成绩（轮次数），用于计算百分位反馈。
// 记录只增不删；排序在查询时做，插入间隙不要求有序。
type Leaderboard struct {
	mu      sync.Mutex
	records map[string][]entry
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{records: make(map[string][]entry)}
}

// Record 追加一条成绩。
func (l *Leaderboard) Record(course string, turns int, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[course] = append(l.records[course], entry{turns: turns, name: name})
}

// Size 返回某课程的历史成绩条数。
func (l *Leaderboard) Size(course string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.records[course])
}

// Rank 返回刚插入的 (turns, name) 在课程内按轮次降序的名次（1 起）。
// 课程历史不足 rankMinRecords 条时返回 0 表示不排名。
// 同轮次的名次先后未定义，对排行榜来说可以接受。
func (l *Leaderboard) Rank(course string, turns int, name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.records[course]
	if len(records) <= rankMinRecords {
		return 0
	}

	sorted := make([]entry, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].turns > sorted[j].turns
	})

	for i, e := range sorted {
		if e.turns == turns && e.name == name {
			return i + 1
		}
	}
	return 0
}

// Percentile 把名次换算成"超过了百分之多少的历史成绩"。
func Percentile(rank, total int) int {
	if rank <= 0 || total <= 0 {
		return 0
	}
	return 100 - rank*100/total
}
