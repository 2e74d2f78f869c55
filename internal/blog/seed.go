package blog

import "time"

// The example catalog mirrors what a fresh install shows before anyone
// has written a post. Like and comment counts on these records are
// display-only: they have no backing rows in the interaction tables.
func defaultSeedCatalog(now time.Time) []Post {
	nowMillis := now.UnixMilli()
	hoursAgo := func(hours int64) int64 {
		return nowMillis - hours*time.Hour.Milliseconds()
	}

	return []Post{
		{
			ID:              "seed_1",
			Title:           "The Slow Death of the Essay",
			Excerpt:         "Why we need to reclaim long-form writing in an age of 15-second attention spans.",
			Content:         "## A shrinking canvas\n\nThe essay used to be the unit of public thought. Somewhere between the feed and the notification, we traded it for fragments.\n\nThis piece argues for getting it back.",
			Status:          PostStatusPublished,
			CreatedAtMillis: hoursAgo(2),
			UpdatedAtMillis: nowMillis,
			AuthorID:        "auth_1",
			AuthorName:      "Sarah Jenkins",
			AuthorAvatar:    "https://api.dicebear.com/7.x/notionists/svg?seed=Sarah",
			Likes:           342,
			CommentCount:    12,
			ReadTime:        "6 min read",
			Tags:            []string{"Writing", "Culture", "Opinion"},
		},
		{
			ID:              "seed_2",
			Title:           "Switching from VS Code to Zed: A Rust-Powered Journey",
			Excerpt:         "Is the speed worth the lack of extensions? My one-month review of the new editor on the block.",
			Content:         "## One month in\n\nStartup time is instant, scrolling never stutters, and the extension gap hurts exactly as much as you would expect.\n\nHere is what stuck and what sent me back.",
			Status:          PostStatusPublished,
			CreatedAtMillis: hoursAgo(5),
			UpdatedAtMillis: nowMillis,
			AuthorID:        "auth_2",
			AuthorName:      "Davide Russo",
			AuthorAvatar:    "https://api.dicebear.com/7.x/notionists/svg?seed=Davide",
			Likes:           89,
			CommentCount:    5,
			ReadTime:        "4 min read",
			Tags:            []string{"Tech", "Coding", "Productivity"},
		},
		{
			ID:              "seed_3",
			Title:           "Why I stopped using \"Smart\" To-Do Lists",
			Excerpt:         "Sometimes a piece of paper is the most advanced technology we have.",
			Content:         "## The paper experiment\n\nAfter five apps, three methodologies and one burnout, I bought a notebook.\n\nIt turns out the friction was the feature all along.",
			Status:          PostStatusPublished,
			CreatedAtMillis: hoursAgo(24),
			UpdatedAtMillis: nowMillis,
			AuthorID:        "auth_3",
			AuthorName:      "Elena K.",
			AuthorAvatar:    "https://api.dicebear.com/7.x/notionists/svg?seed=Elena",
			Likes:           1250,
			CommentCount:    45,
			ReadTime:        "3 min read",
			Tags:            []string{"Productivity", "Minimalism"},
		},
		{
			ID:              "seed_4",
			Title:           "Understanding LLMs visually",
			Excerpt:         "A deep dive into embeddings, vectors, and how machines actually \"understand\" meaning.",
			Content:         "## Words as points in space\n\nEvery token a model reads becomes a vector, and meaning becomes geometry.\n\nThis post walks through that idea with pictures instead of equations.",
			Status:          PostStatusPublished,
			CreatedAtMillis: hoursAgo(48),
			UpdatedAtMillis: nowMillis,
			AuthorID:        "auth_4",
			AuthorName:      "Marcus Chen",
			AuthorAvatar:    "https://api.dicebear.com/7.x/notionists/svg?seed=Marcus",
			Likes:           567,
			CommentCount:    23,
			ReadTime:        "12 min read",
			Tags:            []string{"AI", "Machine Learning", "Education"},
		},
		{
			ID:              "seed_5",
			Title:           "Kyoto in Autumn: A Photo Journal",
			Excerpt:         "Capturing the colors of Japan before the winter sets in.",
			Content:         "## Red leaves, quiet streets\n\nFive days in Kyoto with one camera and no itinerary.\n\nA short photo journal from the temples at dawn.",
			Status:          PostStatusPublished,
			CreatedAtMillis: hoursAgo(120),
			UpdatedAtMillis: nowMillis,
			AuthorID:        "auth_5",
			AuthorName:      "Yuki T.",
			AuthorAvatar:    "https://api.dicebear.com/7.x/notionists/svg?seed=Yuki",
			Likes:           210,
			CommentCount:    8,
			ReadTime:        "2 min read",
			Tags:            []string{"Travel", "Photography", "Japan"},
		},
	}
}
