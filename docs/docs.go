// Package docs registers the OpenAPI description of the HTTP transport with
// swag so http-swagger can serve it at /swagger/doc.json.
//
// Regenerate with: swag init -g cmd/voxmate/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/dispatch": {
            "post": {
                "description": "Accepts a JSON message, or a bare utterance sent as text/plain with the sender in\nthe X-Voxmate-Source header. The utterance is interpreted with the sender's session\nand the reply is returned, and also routed to any requested targets.",
                "consumes": [
                    "application/json",
                    "text/plain"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "dispatch"
                ],
                "summary": "Interpret a Spanish utterance",
                "parameters": [
                    {
                        "description": "Dispatch request",
                        "name": "message",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/message.Message"
                        }
                    },
                    {
                        "type": "string",
                        "description": "Sender identifier (text/plain requests)",
                        "name": "X-Voxmate-Source",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Assistant reply",
                        "schema": {
                            "$ref": "#/definitions/message.DispatchResult"
                        }
                    },
                    "400": {
                        "description": "Invalid request body",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "415": {
                        "description": "Unsupported content type",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "429": {
                        "description": "Rate limit exceeded for this client",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Internal processing error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "message.DispatchResult": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "intent": {
                    "type": "string"
                },
                "message_id": {
                    "type": "string"
                },
                "response_text": {
                    "type": "string"
                },
                "routed_to": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "source": {
                    "type": "string"
                },
                "transcript": {
                    "type": "string"
                }
            }
        },
        "message.Message": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                },
                "targets": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/message.Target"
                    }
                },
                "text": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string"
                }
            }
        },
        "message.Target": {
            "type": "object",
            "properties": {
                "endpoint": {
                    "type": "string"
                },
                "protocol": {
                    "type": "string"
                },
                "service_name": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "VoxMate API",
	Description:      "Rule-based Spanish voice command interpreter.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
