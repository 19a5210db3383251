package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Maplewood Scheduling API",
        "description": "Master schedule generation and student enrollment service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Semesters", "description": "Academic calendar"},
        {"name": "Schedule", "description": "Master schedule generation and views"},
        {"name": "Planning", "description": "Student planning and enrollment"},
        {"name": "Reports", "description": "Staffing and facility reports"}
    ],
    "paths": {
        "/semesters": {
            "get": {
                "tags": ["Semesters"],
                "summary": "List semesters in calendar order",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{semesterId}": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Get one semester",
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/semesters/{semesterId}/schedule/generate": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Generate the master schedule for a semester",
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"},
                    "503": {"description": "Store unavailable"}
                }
            }
        },
        "/semesters/{semesterId}/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Retrieve the committed schedule for a semester",
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/semesters/{semesterId}/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download the schedule as CSV or PDF",
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unsupported format"}
                }
            }
        },
        "/semesters/{semesterId}/reports/teacher-workload": {
            "get": {
                "tags": ["Reports"],
                "summary": "Teacher workload report for a semester",
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{semesterId}/reports/room-usage": {
            "get": {
                "tags": ["Reports"],
                "summary": "Classroom usage report for a semester",
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/plan": {
            "get": {
                "tags": ["Planning"],
                "summary": "Get a student's plan for a semester",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "semesterId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/students/{studentId}/enrollments": {
            "post": {
                "tags": ["Planning"],
                "summary": "Enroll a student into a batch of sections",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/students/{studentId}/progress": {
            "get": {
                "tags": ["Planning"],
                "summary": "Get a student's graduation progress",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "EnrollRequest": {
            "type": "object",
            "properties": {
                "semesterId": {"type": "string"},
                "sectionIds": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["semesterId", "sectionIds"]
        },
        "EnrollmentError": {
            "type": "object",
            "properties": {
                "sectionId": {"type": "string"},
                "code": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
