package httpapi

import (
	"github.com/amittambulkar96/nexus/internal/store"
	"github.com/amittambulkar96/nexus/internal/workflow"
	"github.com/amittambulkar96/nexus/pkg/models"
)

func toAgent(a store.Agent) models.Agent {
	return models.Agent{
		AgentID:       a.AgentID,
		Name:          a.Name,
		Role:          a.Role,
		Status:        a.Status,
		CurrentTaskID: a.CurrentTaskID,
		SessionKey:    a.SessionKey,
		LastActive:    a.LastActive,
		CreatedAt:     a.CreatedAt,
	}
}

func toAgents(in []store.Agent) []models.Agent {
	out := make([]models.Agent, 0, len(in))
	for _, a := range in {
		out = append(out, toAgent(a))
	}
	return out
}

func toTask(t store.Task) models.Task {
	return models.Task{
		TaskID:      t.TaskID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		AssigneeIDs: t.AssigneeIDs,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTasks(in []store.Task) []models.Task {
	out := make([]models.Task, 0, len(in))
	for _, t := range in {
		out = append(out, toTask(t))
	}
	return out
}

func toMessage(m store.Message) models.Message {
	return models.Message{
		MessageID:   m.MessageID,
		TaskID:      m.TaskID,
		FromAgentID: m.FromAgentID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}

func toMessages(in []store.Message) []models.Message {
	out := make([]models.Message, 0, len(in))
	for _, m := range in {
		out = append(out, toMessage(m))
	}
	return out
}

func toNotification(n store.Notification) models.Notification {
	return models.Notification{
		NotificationID:   n.NotificationID,
		MentionedAgentID: n.MentionedAgentID,
		Content:          n.Content,
		TaskID:           n.TaskID,
		Delivered:        n.Delivered,
		CreatedAt:        n.CreatedAt,
	}
}

func toNotifications(in []store.Notification) []models.Notification {
	out := make([]models.Notification, 0, len(in))
	for _, n := range in {
		out = append(out, toNotification(n))
	}
	return out
}

func toActivity(a store.Activity) models.Activity {
	return models.Activity{
		ActivityID: a.ActivityID,
		Type:       a.Type,
		AgentID:    a.AgentID,
		Message:    a.Message,
		TaskID:     a.TaskID,
		CreatedAt:  a.CreatedAt,
	}
}

func toActivities(in []store.Activity) []models.Activity {
	out := make([]models.Activity, 0, len(in))
	for _, a := range in {
		out = append(out, toActivity(a))
	}
	return out
}

func toDocument(d store.Document) models.Document {
	return models.Document{
		DocumentID: d.DocumentID,
		Title:      d.Title,
		Content:    d.Content,
		Type:       d.Type,
		TaskID:     d.TaskID,
		CreatedAt:  d.CreatedAt,
	}
}

func toDocuments(in []store.Document) []models.Document {
	out := make([]models.Document, 0, len(in))
	for _, d := range in {
		out = append(out, toDocument(d))
	}
	return out
}

func toStandup(s workflow.Standup) models.Standup {
	return models.Standup{
		Activities:  toActivities(s.Activities),
		Messages:    toMessages(s.Messages),
		Tasks:       toTasks(s.Tasks),
		Agents:      toAgents(s.Agents),
		GeneratedAt: s.GeneratedAt,
	}
}
