package cli

// shortDigest сокращает дайджест для отображения в терминале
func shortDigest(digest string) string {
	if len(digest) <= 16 {
		return digest
	}
	return digest[:16] + "..."
}
