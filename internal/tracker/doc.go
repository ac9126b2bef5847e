// Package tracker cross-references commit titles with Targetprocess tasks and
// user stories.
//
// Task ids are written into commit subjects as "T#<id> " (the trailing space
// is part of the marker). [TaskIDs] extracts them and [Client.TasksAndStories]
// resolves each task plus the user story it belongs to, fetching every story
// at most once per lookup.
package tracker
