package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gradebook API",
        "description": "Grade recording, statistics, and report generation for school administration",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Grades", "description": "Grade entry, verification, and final-grade composition"},
        {"name": "Assessments", "description": "Assessment catalogue and weighted components"},
        {"name": "Statistics", "description": "Class statistics and anomaly scanning"},
        {"name": "Reports", "description": "Asynchronous CSV/PDF report generation"}
    ],
    "paths": {
        "/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "List grade entries",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "assessmentId", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Grades"],
                "summary": "Record a grade",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid score or payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/bulk-import": {
            "post": {
                "tags": ["Grades"],
                "summary": "Bulk import grades for an assessment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/recalculate": {
            "post": {
                "tags": ["Grades"],
                "summary": "Re-normalize grades for an assessment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecalculateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/{id}/verify": {
            "post": {
                "tags": ["Grades"],
                "summary": "Verify a grade entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already verified", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments": {
            "get": {
                "tags": ["Assessments"],
                "summary": "List assessments",
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assessments"],
                "summary": "Create assessment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssessmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Component weights do not sum to 100", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/{id}": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Get assessment with components",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Class grade statistics",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "assessmentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/anomaly-scan": {
            "post": {
                "tags": ["Statistics"],
                "summary": "Scan an assessment for anomalous grades",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "assessmentId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/final-grade": {
            "get": {
                "tags": ["Grades"],
                "summary": "Weighted final grade for a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report job",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "410": {"description": "Link expired"}
                }
            }
        }
    },
    "definitions": {
        "GradeEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "student_name": {"type": "string"},
                "assessment_id": {"type": "string"},
                "score": {"type": "number"},
                "max_score": {"type": "number"},
                "percentage": {"type": "integer"},
                "letter_grade": {"type": "string"},
                "status": {"type": "string"},
                "flag_reason": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "GradeEntryRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "assessment_id": {"type": "string"},
                "score": {"type": "number"}
            },
            "required": ["student_id", "assessment_id"]
        },
        "BulkImportRequest": {
            "type": "object",
            "properties": {
                "assessment_id": {"type": "string"},
                "rows": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/BulkImportRow"}
                }
            },
            "required": ["assessment_id", "rows"]
        },
        "BulkImportRow": {
            "type": "object",
            "properties": {
                "student_number": {"type": "string"},
                "student_name": {"type": "string"},
                "score": {"type": "number"}
            }
        },
        "RecalculateRequest": {
            "type": "object",
            "properties": {
                "assessment_id": {"type": "string"}
            },
            "required": ["assessment_id"]
        },
        "AssessmentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"},
                "max_grade": {"type": "number"},
                "weight": {"type": "number"},
                "date": {"type": "string"},
                "class_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "components": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ComponentRequest"}
                }
            },
            "required": ["name", "type", "max_grade", "class_id"]
        },
        "ComponentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "max_grade": {"type": "number"},
                "weight": {"type": "number"}
            },
            "required": ["name", "max_grade", "weight"]
        },
        "GradeStatistics": {
            "type": "object",
            "properties": {
                "total_students": {"type": "integer"},
                "entered": {"type": "integer"},
                "average": {"type": "integer"},
                "median": {"type": "integer"},
                "min": {"type": "integer"},
                "max": {"type": "integer"},
                "pass_rate": {"type": "number"},
                "distribution": {"type": "object"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["class-grades", "student-report-card", "institution-summary"]},
                "classId": {"type": "string"},
                "studentId": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["type", "format"]
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
