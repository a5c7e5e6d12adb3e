package baker

// MatchTree is exported for testing purposes only.
var MatchTree = matchTree
