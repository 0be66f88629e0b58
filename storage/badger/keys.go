package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	photoRecordPrefix  = "photrec"
	searchRecordPrefix = "searec"
	searchResultPrefix = "seares"
	matchRecordPrefix  = "matrec"
	matchRankPrefix    = "matrank"
	chatMessagePrefix  = "chamsg"
	chatSeqPrefix      = "chaseq"
)

// makePhotoKey generates a key for a photo record by ID.
func makePhotoKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s:%d", photoRecordPrefix, id))
}

// makeSearchKey generates a key for a search record by its UUID.
func makeSearchKey(searchId string) []byte {
	return []byte(searchRecordPrefix + ":" + searchId)
}

// makeSearchResultKey generates a key for the result row of a search.
// One result row per search, so the search id is the natural key.
func makeSearchResultKey(searchId string) []byte {
	return []byte(searchResultPrefix + ":" + searchId)
}

// makeMatchKey generates a key for a match record by its UUID.
func makeMatchKey(matchId string) []byte {
	return []byte(matchRecordPrefix + ":" + matchId)
}

// makeMatchRankKey generates a composite key for the rank index.
// Format: prefix:resultId:rank — BigEndian rank so lexicographic iteration
// over the resultId prefix visits matches in rank order.
func makeMatchRankKey(resultId string, rank int) []byte {
	prefix := matchRankPrefix + ":" + resultId + ":"
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(rank))
	return buf
}

// makeMatchRankScanPrefix generates the iteration prefix for a result's rank index.
func makeMatchRankScanPrefix(resultId string) []byte {
	return []byte(matchRankPrefix + ":" + resultId + ":")
}

// makeChatMessageKey generates a composite key for a chat message.
// Format: prefix:matchId:seq — BigEndian sequence so lexicographic iteration
// over the matchId prefix visits messages in insertion order.
func makeChatMessageKey(matchId string, seq uint64) []byte {
	prefix := chatMessagePrefix + ":" + matchId + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeChatMessageScanPrefix generates the iteration prefix for a match's messages.
func makeChatMessageScanPrefix(matchId string) []byte {
	return []byte(chatMessagePrefix + ":" + matchId + ":")
}
