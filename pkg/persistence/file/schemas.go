package file

// JSON schemas applied to catalog documents before decoding. Struct and graph
// validation run afterwards; the schemas catch shape problems early with
// readable errors.

const ruleSchemaJSON = `{
  "type": "object",
  "required": ["id", "company_id", "name", "trigger", "action"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "owner_id": {"type": "string"},
    "company_id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 3},
    "trigger": {"type": "string", "minLength": 1},
    "conditions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["field", "operator"],
        "properties": {
          "field": {"type": "string", "minLength": 1},
          "operator": {"type": "string", "minLength": 1},
          "value": {"type": "string"}
        }
      }
    },
    "action": {
      "type": "string",
      "enum": ["send_message", "add_tag", "remove_tag", "move_crm_stage", "update_order_status"]
    },
    "action_params": {"type": "object"},
    "is_active": {"type": "boolean"}
  }
}`

const flowSchemaJSON = `{
  "type": "object",
  "required": ["id", "company_id", "name", "status", "nodes"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "company_id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 3},
    "status": {"type": "string", "enum": ["draft", "published"]},
    "priority": {"type": "integer"},
    "nodes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {
            "type": "string",
            "enum": ["trigger_keyword", "send_message", "condition", "action"]
          },
          "data": {"type": "object"}
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "source", "target"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "source": {"type": "string", "minLength": 1},
          "target": {"type": "string", "minLength": 1},
          "label": {"type": "string"}
        }
      }
    },
    "schedule": {
      "type": "object",
      "properties": {
        "timezone": {"type": "string"},
        "is_perpetual": {"type": "boolean"},
        "activation_time": {"type": "string"},
        "deactivation_time": {"type": "string"},
        "active_days": {"type": "array", "items": {"type": "string"}}
      }
    },
    "session_config": {
      "type": "object",
      "properties": {
        "timeout_minutes": {"type": "integer", "minimum": 0},
        "timeout_action": {"type": "string", "enum": ["end_flow"]}
      }
    }
  }
}`
