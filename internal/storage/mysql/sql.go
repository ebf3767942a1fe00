package mysql

const insertTenantSQL = `
INSERT INTO tenants
  (id, name, slug, contact_name, contact_email, contact_phone,
   plan_key, sub_active, sub_ends_at, trial_ends_at,
   gating_enabled, welcome_copy, logo_url, cover_url, review_link)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateTenantSQL = `
UPDATE tenants SET
  name          = ?,
  slug          = ?,
  contact_name  = ?,
  contact_email = ?,
  contact_phone = ?,
  updated_at    = CURRENT_TIMESTAMP
WHERE id = ?
`

const updatePlanSQL = `
UPDATE tenants SET
  plan_key    = ?,
  sub_active  = ?,
  sub_ends_at = ?,
  updated_at  = CURRENT_TIMESTAMP
WHERE id = ?
`

const updateGatingSQL = `
UPDATE tenants SET
  gating_enabled = ?,
  welcome_copy   = ?,
  logo_url       = ?,
  cover_url      = ?,
  review_link    = ?,
  updated_at     = CURRENT_TIMESTAMP
WHERE id = ?
`

const tenantCols = `
  t.id, t.name, t.slug, t.contact_name, t.contact_email, t.contact_phone,
  t.plan_key, t.sub_active, t.sub_ends_at, t.trial_ends_at,
  t.gating_enabled, t.welcome_copy, t.logo_url, t.cover_url, t.review_link
`

const getTenantSQL = `SELECT` + tenantCols + `FROM tenants t WHERE t.id = ?`

const getTenantBySlugSQL = `SELECT` + tenantCols + `FROM tenants t WHERE t.slug = ?`

const listTenantsSQL = `SELECT` + tenantCols + `FROM tenants t ORDER BY t.name, t.id`

const insertBranchSQL = `
INSERT INTO branches (id, tenant_id, name, address, review_link, active)
VALUES (?, ?, ?, ?, ?, ?)
`

const updateBranchSQL = `
UPDATE branches SET
  name        = ?,
  address     = ?,
  review_link = ?,
  active      = ?
WHERE id = ? AND tenant_id = ?
`

const listBranchesSQL = `
SELECT id, tenant_id, name, address, review_link, active
FROM branches
WHERE tenant_id = ?
ORDER BY created_at, id
`

const insertReviewSQL = `
INSERT INTO reviews
  (id, tenant_id, branchname, rating, comment, name, phone, email,
   source, status, replied, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
`

const listReviewsSQL = `
SELECT id, tenant_id, branchname, rating, comment, name, phone, email,
       source, status, replied, created_at
FROM reviews
WHERE tenant_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const updateReviewStatusSQL = `
UPDATE reviews SET status = ?, replied = ?
WHERE id = ? AND tenant_id = ?
`

const deleteReviewSQL = `DELETE FROM reviews WHERE id = ? AND tenant_id = ?`

const countBySourceSQL = `
SELECT source, COUNT(*) FROM reviews WHERE tenant_id = ? GROUP BY source
`

const ratingHistogramSQL = `
SELECT rating, COUNT(*) FROM reviews WHERE tenant_id = ? GROUP BY rating
`

// Singleton row, fixed id. Upsert keeps it single.
const getSettingsSQL = `
SELECT widget_phone, demo_enabled, demo_slot_minutes, notify_url, updated_at
FROM settings WHERE id = 1
`

const saveSettingsSQL = `
INSERT INTO settings (id, widget_phone, demo_enabled, demo_slot_minutes, notify_url)
VALUES (1, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  widget_phone      = VALUES(widget_phone),
  demo_enabled      = VALUES(demo_enabled),
  demo_slot_minutes = VALUES(demo_slot_minutes),
  notify_url        = VALUES(notify_url),
  updated_at        = CURRENT_TIMESTAMP
`
