package storage

import (
	"sort"

	"github.com/mcoot/s3arena/internal/model"
)

// SortTasksNewestFirst orders tasks by creation time descending, then id descending
func SortTasksNewestFirst(tasks []*model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
}

// SortUsersByID orders users by id ascending
func SortUsersByID(users []*model.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}

// SortProfilesByID orders profiles by id ascending
func SortProfilesByID(profiles []*model.Profile) {
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
}

// SortCompletionsByID orders completions by id ascending
func SortCompletionsByID(cs []*model.Completion) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}
