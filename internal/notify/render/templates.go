package render

// pair agrupa las dos variantes de un template (multipart/alternative).
type pair struct {
	html string
	text string
}

// defaultTemplates: un par por template ID del catálogo. El HTML es
// deliberadamente simple; el layout final lo maquilla el frontend team y se
// pisa acá cuando esté.
var defaultTemplates = map[string]pair{
	"new_follower": {
		html: `<html><head><title>{{.subject}}</title></head><body>
<p>Hi {{.recipient_name}},</p>
<p><strong>{{.actor_name}}</strong> started following you.</p>
<p><a href="{{.profile_url}}">View their profile</a></p>
</body></html>`,
		text: `Hi {{.recipient_name}},

{{.actor_name}} started following you.

View their profile: {{.profile_url}}
`,
	},

	"connection_request": {
		html: `<html><head><title>{{.subject}}</title></head><body>
<p>Hi {{.recipient_name}},</p>
<p>{{.message}}</p>
<p><a href="{{.connections_url}}">Respond to the request from {{.actor_name}}</a></p>
</body></html>`,
		text: `Hi {{.recipient_name}},

{{.message}}

Respond to the request from {{.actor_name}}: {{.connections_url}}
`,
	},

	"connection_accepted": {
		html: `<html><head><title>{{.subject}}</title></head><body>
<p>Hi {{.recipient_name}},</p>
<p><strong>{{.actor_name}}</strong> accepted your connection request.</p>
<p><a href="{{.connections_url}}">See your connections</a></p>
</body></html>`,
		text: `Hi {{.recipient_name}},

{{.actor_name}} accepted your connection request.

See your connections: {{.connections_url}}
`,
	},

	"post_comment": {
		html: `<html><head><title>{{.subject}}</title></head><body>
<p>Hi {{.recipient_name}},</p>
<p><strong>{{.actor_name}}</strong> commented on your post:</p>
<blockquote>{{.post_content}}</blockquote>
<p><a href="{{.post_url}}">View the conversation</a></p>
</body></html>`,
		text: `Hi {{.recipient_name}},

{{.actor_name}} commented on your post:

> {{.post_content}}

View the conversation: {{.post_url}}
`,
	},

	"post_reaction": {
		html: `<html><head><title>{{.subject}}</title></head><body>
<p>Hi {{.recipient_name}},</p>
<p><strong>{{.actor_name}}</strong> reacted to your post:</p>
<blockquote>{{.post_content}}</blockquote>
<p><a href="{{.post_url}}">View your post</a></p>
</body></html>`,
		text: `Hi {{.recipient_name}},

{{.actor_name}} reacted to your post:

> {{.post_content}}

View your post: {{.post_url}}
`,
	},

	"email_verification": {
		html: `<html><head><title>{{.subject}}</title></head><body>
<p>Hi {{.name}},</p>
<p>Use this code to verify your email address:</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.otp}}</strong></p>
<p>The code expires in 10 minutes. If you didn't request it, ignore this email.</p>
<p><a href="{{.frontend_url}}/verify-email">Enter the code</a></p>
</body></html>`,
		text: `Hi {{.name}},

Use this code to verify your email address:

    {{.otp}}

The code expires in 10 minutes. If you didn't request it, ignore this email.

Enter the code: {{.frontend_url}}/verify-email
`,
	},

	"password_reset": {
		html: `<html><head><title>{{.subject}}</title></head><body>
<p>Hi {{.name}},</p>
<p>Use this code to reset your password:</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.otp}}</strong></p>
<p>The code expires in 10 minutes. If you didn't request a reset, ignore this email.</p>
<p><a href="{{.frontend_url}}/reset-password">Enter the code</a></p>
</body></html>`,
		text: `Hi {{.name}},

Use this code to reset your password:

    {{.otp}}

The code expires in 10 minutes. If you didn't request a reset, ignore this email.

Enter the code: {{.frontend_url}}/reset-password
`,
	},
}
