package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mbeoliero/kit/log"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/config"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/session"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/identity"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	conversationId := flag.Int64("conversation", 0, "conversation id to join")
	group := flag.Bool("group", false, "treat the id as a group conversation")
	token := flag.String("token", "", "JWT, overrides the config file value")
	flag.Parse()

	ctx := context.TODO()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		os.Exit(1)
	}
	if *token != "" {
		cfg.Server.Token = *token
	}

	ident, err := identity.FromTokenUnverified(cfg.Server.Token)
	if err != nil {
		log.CtxError(ctx, "failed to parse token: %v", err)
		os.Exit(1)
	}
	log.CtxInfo(ctx, "authenticated as user_id=%d", ident.UserId)

	scope := entity.ScopeDirect
	if *group {
		scope = entity.ScopeGroup
	}

	ctrl, err := session.New(cfg, ident, session.WithOnMessage(func(msg *entity.Message) {
		name := fmt.Sprintf("user %d", msg.SenderId)
		if msg.Sender != nil && msg.Sender.Username != "" {
			name = msg.Sender.Username
		}
		body := msg.Content
		if body == "" && msg.Attachment != "" {
			body = fmt.Sprintf("[%s] %s", msg.AttachmentType, msg.Attachment)
		}
		fmt.Printf("%s: %s\n", name, body)
	}))
	if err != nil {
		log.CtxError(ctx, "failed to create session: %v", err)
		os.Exit(1)
	}

	if err := ctrl.Connect(ctx); err != nil {
		log.CtxError(ctx, "failed to connect: %v", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	if err := ctrl.LoadConversations(ctx); err != nil {
		log.CtxWarn(ctx, "failed to load conversation lists: %v", err)
	}
	printSidebar(ctrl)

	if *conversationId != 0 {
		if _, err := ctrl.LoadMessages(ctx, scope, *conversationId, 1); err != nil {
			log.CtxWarn(ctx, "failed to load history: %v", err)
		}
		if err := ctrl.JoinConversation(ctx, scope, *conversationId); err != nil {
			log.CtxError(ctx, "failed to join conversation: %v", err)
			os.Exit(1)
		}
		for _, msg := range ctrl.Store().Messages(scope, *conversationId) {
			fmt.Printf("user %d: %s\n", msg.SenderId, msg.Content)
		}
		if err := ctrl.MarkRead(ctx, scope, *conversationId); err != nil {
			log.CtxWarn(ctx, "mark read failed: %v", err)
		}
	}

	// Read stdin lines and send them to the joined conversation.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" || *conversationId == 0 {
				continue
			}
			if _, err := ctrl.SendMessage(ctx, scope, *conversationId, line, "", ""); err != nil {
				log.CtxWarn(ctx, "send failed: %v", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down")
}

func printSidebar(ctrl *session.Controller) {
	for _, c := range ctrl.Store().Conversations() {
		preview := ""
		if c.LastMessage != nil {
			preview = c.LastMessage.Content
		}
		fmt.Printf("conversation %d (unread %d): %s\n", c.Id, c.UnreadCount, preview)
	}
	for _, g := range ctrl.Store().GroupConversations() {
		preview := ""
		if g.LastMessage != nil {
			preview = g.LastMessage.Content
		}
		fmt.Printf("group %d %q (unread %d): %s\n", g.Id, g.Name, g.UnreadCount, preview)
	}
}
