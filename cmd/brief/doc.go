// Brief summarizes code changes with LLM providers while keeping the request
// inside the model's token budget.
//
// Changed files are estimated, the ones that fit the total budget and the
// per-file cap are assembled with the summary instructions, and the result is
// sent to the model. A dry run reports the same selection without the call.
//
// Usage:
//
//	brief summarize staged                    # summarize staged changes
//	brief summarize range origin/main..HEAD   # summarize a branch
//	brief summarize pr 42                     # summarize a GitHub pull request
//	brief analyze unstaged                    # dry run: token analysis only
//	brief serve                               # HTTP API on server.addr
package main
