package gateway

import (
	"context"
	"testing"

	"LumeChat/module/chat/model"
	"LumeChat/service/feed"
	"LumeChat/store/memstore"
	jwtlib "LumeChat/tools/security"
)

func TestCanSubscribeEnforcesMembership(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	if err := st.CreateConversation(ctx, &model.Conversation{ID: "conv-1"}); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if err := st.AddParticipant(ctx, "conv-1", "member"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}

	s := NewServer(nil, jwtlib.DefaultOptions([]byte("test-secret")), st)

	cases := []struct {
		name  string
		user  string
		topic feed.Topic
		want  bool
	}{
		{"member on their conversation", "member", feed.Topic{Table: feed.TableMessages, ConversationID: "conv-1"}, true},
		{"outsider on a foreign conversation", "outsider", feed.Topic{Table: feed.TableMessages, ConversationID: "conv-1"}, false},
		{"member reactions topic", "member", feed.Topic{Table: feed.TableReactions, ConversationID: "conv-1"}, true},
		{"outsider reactions topic", "outsider", feed.Topic{Table: feed.TableReactions, ConversationID: "conv-1"}, false},
		{"bare messages table", "member", feed.Topic{Table: feed.TableMessages}, false},
		{"bare reactions table", "member", feed.Topic{Table: feed.TableReactions}, false},
		{"unknown conversation", "member", feed.Topic{Table: feed.TableMessages, ConversationID: "nope"}, false},
		{"stories stay open", "outsider", feed.Topic{Table: feed.TableStories}, true},
		{"profiles stay open", "outsider", feed.Topic{Table: feed.TableProfiles}, true},
	}
	for _, tc := range cases {
		if got := s.canSubscribe(tc.user, tc.topic); got != tc.want {
			t.Errorf("%s: canSubscribe = %v, want %v", tc.name, got, tc.want)
		}
	}
}
