package score

import (
	"fmt"
	"testing"
)

// 样本不足时不排名。
func TestRankRequiresEnoughRecords(t *testing.T) {
	lb := NewLeaderboard()
	for i := 0; i < 10; i++ {
		lb.Record("刺头居民", i+1, fmt.Sprintf("学员%d", i))
	}

	if rank := lb.Rank("刺头居民", 10, "学员9"); rank != 0 {
		t.Fatalf("expected unranked with 10 records, got %d", rank)
	}

	lb.Record("刺头居民", 11, "学员10")
	rank := lb.Rank("刺头居民", 11, "学员10")
	if rank < 1 || rank > 11 {
		t.Fatalf("rank out of bounds: %d", rank)
	}
	// 轮次最多，降序排第一
	if rank != 1 {
		t.Fatalf("expected rank 1 for highest turn count, got %d", rank)
	}
}

func TestRankDescendingByTurns(t *testing.T) {
	lb := NewLeaderboard()
	for i := 0; i < 11; i++ {
		lb.Record("c", 20-i, fmt.Sprintf("学员%d", i))
	}
	lb.Record("c", 1, "垫底")

	if rank := lb.Rank("c", 1, "垫底"); rank != 12 {
		t.Fatalf("expected last place 12, got %d", rank)
	}
	if rank := lb.Rank("c", 20, "学员0"); rank != 1 {
		t.Fatalf("expected first place, got %d", rank)
	}
}

func TestRankPerCourse(t *testing.T) {
	lb := NewLeaderboard()
	for i := 0; i < 12; i++ {
		lb.Record("a", i, fmt.Sprintf("学员%d", i))
	}
	lb.Record("b", 99, "别科学员")

	// b 课程只有一条记录，不排名
	if rank := lb.Rank("b", 99, "别科学员"); rank != 0 {
		t.Fatalf("courses must rank independently, got %d", rank)
	}
}

func TestPercentile(t *testing.T) {
	cases := []struct {
		rank, total, want int
	}{
		{1, 100, 99},
		{50, 100, 50},
		{100, 100, 0},
		{0, 100, 0},  // 未排名
		{1, 0, 0},    // 无总数
		{3, 12, 75},
	}
	for _, tc := range cases {
		if got := Percentile(tc.rank, tc.total); got != tc.want {
			t.Fatalf("Percentile(%d, %d) = %d, want %d", tc.rank, tc.total, got, tc.want)
		}
	}
}
