package aggregate

import (
	"sort"

	"github.com/vpenkov/perfidia/internal/model"
)

// Combine outer-joins chat-side and claim-side group rows on the group name.
// Groups present in only one source still appear, with the other side nil.
// Results are sorted by group name.
func Combine(chats []model.GroupChatStats, claims []model.GroupClaimStats) []model.GroupFeatures {
	byGroup := make(map[string]*model.GroupFeatures, len(chats)+len(claims))

	for i := range chats {
		c := chats[i]
		byGroup[c.Group] = &model.GroupFeatures{Group: c.Group, Chat: &c}
	}

	for i := range claims {
		cl := claims[i]
		if gf, ok := byGroup[cl.Group]; ok {
			gf.Claim = &cl
		} else {
			byGroup[cl.Group] = &model.GroupFeatures{Group: cl.Group, Claim: &cl}
		}
	}

	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.GroupFeatures, 0, len(names))
	for _, name := range names {
		out = append(out, *byGroup[name])
	}
	return out
}
