// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package policy evaluates the Cedar role policy that gates each API route.
package policy

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/cedar-policy/cedar-go"

	"collabforms/internal/models"
)

//go:embed policies/policy.cedar
var policyContent []byte

// Action names a group of routes in the policy.
type Action string

const (
	FormRead            Action = "form.read"
	FormManage          Action = "form.manage"
	SectionSubmit       Action = "section.submit"
	SectionUpload       Action = "section.upload"
	UserRead            Action = "user.read"
	UserUpdate          Action = "user.update"
	UserManage          Action = "user.manage"
	NotificationRead    Action = "notification.read"
	NotificationDismiss Action = "notification.dismiss"
)

const (
	userType   = "CollabForms::User"
	actionType = "CollabForms::Action"
	routeType  = "CollabForms::Route"
)

// Authorizer holds the parsed policy set.
type Authorizer struct {
	policySet *cedar.PolicySet
}

// New parses the embedded policy.
func New() (*Authorizer, error) {
	ps, err := cedar.NewPolicySetFromBytes("policy.cedar", policyContent)
	if err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	return &Authorizer{policySet: ps}, nil
}

// Allowed reports whether user may perform action on the named route.
func (a *Authorizer) Allowed(user *models.User, action Action, route string) (bool, error) {
	if user == nil {
		return false, nil
	}

	entitiesJSON := []map[string]any{
		{
			"uid":     map[string]string{"type": userType, "id": user.ID.String()},
			"attrs":   map[string]any{"role": string(user.Role)},
			"parents": []any{},
		},
	}
	raw, err := json.Marshal(entitiesJSON)
	if err != nil {
		return false, fmt.Errorf("marshal entities: %w", err)
	}
	var entities cedar.EntityMap
	if err := json.Unmarshal(raw, &entities); err != nil {
		return false, fmt.Errorf("unmarshal entities: %w", err)
	}

	req := cedar.Request{
		Principal: cedar.NewEntityUID(cedar.EntityType(userType), cedar.String(user.ID.String())),
		Action:    cedar.NewEntityUID(cedar.EntityType(actionType), cedar.String(string(action))),
		Resource:  cedar.NewEntityUID(cedar.EntityType(routeType), cedar.String(route)),
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}

	decision, _ := a.policySet.IsAuthorized(entities, req)
	return decision == cedar.Allow, nil
}
