package fileregistry

import "encoding/json"

// PredefinedSchemas returns the schema set seeded on first boot. These ids
// form the protected set: they can be updated but never deleted.
func PredefinedSchemas() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		"invoice": json.RawMessage(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Invoice",
  "description": "Commercial invoice issued to a customer",
  "version": "1.0",
  "type": "object",
  "properties": {
    "invoice_number": {"type": "string", "minLength": 1},
    "issue_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "due_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "vendor_name": {"type": "string", "minLength": 1},
    "customer_name": {"type": "string"},
    "total": {"type": "string", "pattern": "^-?\\d+(\\.\\d{1,2})?$"},
    "tax": {"type": "string", "pattern": "^-?\\d+(\\.\\d{1,2})?$"},
    "currency_code": {"type": "string", "minLength": 3, "maxLength": 3}
  },
  "required": ["invoice_number", "vendor_name", "total"]
}`),
		"receipt": json.RawMessage(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Receipt",
  "description": "Proof of payment for goods or services",
  "version": "1.0",
  "type": "object",
  "properties": {
    "merchant_name": {"type": "string", "minLength": 1},
    "tx_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "subtotal": {"type": "string", "pattern": "^-?\\d+(\\.\\d{1,2})?$"},
    "tax": {"type": "string", "pattern": "^-?\\d+(\\.\\d{1,2})?$"},
    "total": {"type": "string", "pattern": "^-?\\d+(\\.\\d{1,2})?$"},
    "payment_method": {"type": "string"}
  },
  "required": ["merchant_name", "total"]
}`),
		"contract": json.RawMessage(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Contract",
  "description": "Legal agreement between two or more parties",
  "version": "1.0",
  "type": "object",
  "properties": {
    "parties": {
      "type": "array",
      "items": {"type": "string"},
      "minItems": 2
    },
    "effective_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "expiration_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "governing_law": {"type": "string"},
    "subject": {"type": "string"}
  },
  "required": ["parties", "effective_date"]
}`),
	}
}
