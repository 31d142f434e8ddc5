package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"cluechase/internal/domain"
)

const testPersona = "You are a word guessing game master."

func TestNewConversationLog_SeedsSystemTurn(t *testing.T) {
	log, err := NewConversationLog(testPersona)
	require.NoError(t, err)
	require.Equal(t, 1, log.Len())

	snapshot := log.Snapshot()
	require.Equal(t, domain.RoleSystem, snapshot[0].Role)
	require.Equal(t, testPersona, snapshot[0].Content)
}

func TestNewConversationLog_EmptyPersona(t *testing.T) {
	_, err := NewConversationLog("   ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "system prompt")
}

func TestAppend_PreservesInsertionOrder(t *testing.T) {
	log, err := NewConversationLog(testPersona)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		require.NoError(t, log.Append(domain.ChatMessage{Role: role, Content: fmt.Sprintf("turn %d", i)}))
	}

	snapshot := log.Snapshot()
	require.Len(t, snapshot, 21)
	require.Equal(t, domain.RoleSystem, snapshot[0].Role, "system turn must stay first")
	for i := 0; i < 20; i++ {
		require.Equal(t, fmt.Sprintf("turn %d", i), snapshot[i+1].Content)
	}
}

func TestAppend_RejectsSecondSystemTurn(t *testing.T) {
	log, err := NewConversationLog(testPersona)
	require.NoError(t, err)

	err = log.Append(domain.ChatMessage{Role: domain.RoleSystem, Content: "another persona"})
	require.Error(t, err)
	require.Equal(t, 1, log.Len())
}

func TestAppend_RejectsMalformedTurns(t *testing.T) {
	log, err := NewConversationLog(testPersona)
	require.NoError(t, err)

	require.Error(t, log.Append(domain.ChatMessage{Role: "narrator", Content: "hi"}))
	require.Error(t, log.Append(domain.ChatMessage{Role: domain.RoleUser, Content: ""}))
	require.Equal(t, 1, log.Len())
}

func TestSnapshot_IsACopy(t *testing.T) {
	log, err := NewConversationLog(testPersona)
	require.NoError(t, err)
	require.NoError(t, log.Append(domain.ChatMessage{Role: domain.RoleUser, Content: "guess"}))

	first := log.Snapshot()
	first[0].Content = "tampered"
	first[1].Content = "tampered"

	second := log.Snapshot()
	require.Equal(t, testPersona, second[0].Content)
	require.Equal(t, "guess", second[1].Content)
}
